// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"} // Main/primary text
	TextMutedColor   = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#696969"} // Hints, help text, footers

	// Semantic color names - Border
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"} // Highlighting on
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#C98E00", Dark: "#FECA57"} // Highlighting off
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"} // Failed rules
)

// Preview holds the styles of the preview surface. Styles are bound to a
// renderer so tests can force a color profile.
type Preview struct {
	Header    lipgloss.Style
	Footer    lipgloss.Style
	Problem   lipgloss.Style
	StatusOn  lipgloss.Style
	StatusOff lipgloss.Style
	Separator lipgloss.Style
}

// NewPreview builds the preview styles for r.
func NewPreview(r *lipgloss.Renderer) Preview {
	return Preview{
		Header:    r.NewStyle().Bold(true).Foreground(TextPrimaryColor),
		Footer:    r.NewStyle().Foreground(TextMutedColor),
		Problem:   r.NewStyle().Foreground(StatusErrorColor),
		StatusOn:  r.NewStyle().Bold(true).Foreground(StatusSuccessColor),
		StatusOff: r.NewStyle().Bold(true).Foreground(StatusWarningColor),
		Separator: r.NewStyle().Foreground(BorderDefaultColor),
	}
}
