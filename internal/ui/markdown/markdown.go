// Package markdown renders glint's rule listings as styled terminal markdown.
package markdown

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/glint/internal/highlight"
	"github.com/zjrosen/glint/internal/rules"
)

// Renderer turns rule listings into terminal output through glamour.
type Renderer struct {
	tr    *glamour.TermRenderer
	width int
	style string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle selects a built-in glamour style such as "dark", "light" or
// "notty".
func WithStyle(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.style = name
		}
	}
}

// New returns a Renderer wrapping at width. Without WithStyle the style
// follows the terminal background.
func New(width int, opts ...Option) (*Renderer, error) {
	r := &Renderer{width: width}
	for _, opt := range opts {
		opt(r)
	}
	if r.style == "" {
		r.style = backgroundStyle()
	}

	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
		glamour.WithTableWrap(false),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %q markdown renderer: %w", r.style, err)
	}
	r.tr = tr
	return r, nil
}

// backgroundStyle uses the default renderer's cached background query.
func backgroundStyle() string {
	if lipgloss.HasDarkBackground() {
		return styles.DarkStyle
	}
	return styles.LightStyle
}

// Width returns the configured word wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Style returns the glamour style in use.
func (r *Renderer) Style() string {
	return r.style
}

// Render transforms markdown to styled terminal output.
func (r *Renderer) Render(markdown string) (string, error) {
	return r.tr.Render(markdown)
}

// RenderRules renders the rules listing for list. A banner is added when
// highlighting is switched off.
func (r *Renderer) RenderRules(list rules.List, enabled bool, builtin func(id string) bool, diags []highlight.Diagnostic) (string, error) {
	return r.Render(Listing(list, enabled, builtin, diags))
}

// Listing is the markdown behind RenderRules.
func Listing(list rules.List, enabled bool, builtin func(id string) bool, diags []highlight.Diagnostic) string {
	doc := RulesDocument(list, builtin, diags)
	if !enabled {
		doc = offBanner + doc
	}
	return doc
}

const offBanner = "_Highlighting is off (glint toggle on)._\n\n"
