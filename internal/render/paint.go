package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Format selects a painter.
type Format string

const (
	FormatANSI  Format = "ansi"
	FormatHTML  Format = "html"
	FormatPlain Format = "plain"
)

// ParseFormat validates a configured format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatANSI, FormatHTML, FormatPlain:
		return f, nil
	case "":
		return FormatANSI, nil
	default:
		return "", fmt.Errorf("unknown render format %q (want ansi, html or plain)", s)
	}
}

// Plain concatenates segment text.
func Plain(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// ANSI paints segments with the default lipgloss renderer.
func ANSI(segments []Segment, p Palette) string {
	return ANSIWith(lipgloss.DefaultRenderer(), segments, p)
}

// ANSIWith paints segments with r, so the color profile follows r's output.
// Styled runs use their resolved rule color; plain runs use the palette
// default when one is set.
func ANSIWith(r *lipgloss.Renderer, segments []Segment, p Palette) string {
	styles := map[string]lipgloss.Style{}
	styleFor := func(color string) (lipgloss.Style, bool) {
		if color == "" {
			return lipgloss.Style{}, false
		}
		st, ok := styles[color]
		if !ok {
			st = r.NewStyle().
				Foreground(lipgloss.Color(color)).
				TabWidth(lipgloss.NoTabConversion)
			styles[color] = st
		}
		return st, true
	}

	var b strings.Builder
	for _, s := range segments {
		color := p.Default()
		if s.Styled {
			color = p.Resolve(s.Color)
		}
		st, ok := styleFor(color)
		if !ok {
			b.WriteString(s.Text)
			continue
		}
		writeLines(&b, s.Text, st)
	}
	return b.String()
}

// writeLines styles each line separately. lipgloss pads multi-line blocks to
// a common width, which would corrupt the text.
func writeLines(b *strings.Builder, text string, st lipgloss.Style) {
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		if line != "" {
			b.WriteString(st.Render(line))
		}
	}
}

// HTML paints segments as escaped text with one span per styled run.
// Colors are only emitted when they are hex colors or var(--name)
// references; a reference the palette knows is replaced by its value.
func HTML(segments []Segment, p Palette) template.HTML {
	var b strings.Builder
	for _, s := range segments {
		if !s.Styled {
			b.WriteString(template.HTMLEscapeString(s.Text))
			continue
		}
		b.WriteString(`<span class="`)
		b.WriteString(template.HTMLEscapeString(s.Class))
		b.WriteByte('"')
		if color := htmlColor(s.Color, p); color != "" {
			b.WriteString(` style="color: `)
			b.WriteString(template.HTMLEscapeString(color))
			b.WriteByte('"')
		}
		b.WriteByte('>')
		b.WriteString(template.HTMLEscapeString(s.Text))
		b.WriteString(`</span>`)
	}
	return template.HTML(b.String()) //nolint:gosec // every piece above is escaped
}

func htmlColor(c string, p Palette) string {
	c = strings.TrimSpace(c)
	if IsHexColor(c) {
		return c
	}
	if _, ok := CSSVar(c); ok {
		if resolved := p.lookup(c); resolved != "" {
			return resolved
		}
		return c
	}
	return ""
}
