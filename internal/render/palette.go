package render

import (
	"regexp"
	"strings"
)

var (
	hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	cssVarRe   = regexp.MustCompile(`^var\(\s*--([A-Za-z0-9_-]+)\s*\)$`)
)

// IsHexColor reports whether c is #rgb or #rrggbb.
func IsHexColor(c string) bool {
	return hexColorRe.MatchString(strings.TrimSpace(c))
}

// CSSVar returns the variable name of a var(--name) reference.
func CSSVar(c string) (string, bool) {
	m := cssVarRe.FindStringSubmatch(strings.TrimSpace(c))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Palette resolves rule colors to terminal colors. CSS variables are looked
// up by case-insensitive name; anything unresolvable falls back to the
// default text color.
type Palette struct {
	vars         map[string]string
	defaultColor string
}

// NewPalette copies vars. defaultColor may be empty for the terminal's own
// foreground.
func NewPalette(vars map[string]string, defaultColor string) Palette {
	p := Palette{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		p.vars[strings.ToLower(strings.TrimPrefix(k, "--"))] = strings.TrimSpace(v)
	}
	p.defaultColor = p.lookup(defaultColor)
	return p
}

// WithDefault returns a copy using defaultColor for unstyled text.
func (p Palette) WithDefault(defaultColor string) Palette {
	p.defaultColor = p.lookup(defaultColor)
	return p
}

// Default returns the resolved default text color, or "".
func (p Palette) Default() string {
	return p.defaultColor
}

// Resolve returns a hex color for c, or the default color.
func (p Palette) Resolve(c string) string {
	if r := p.lookup(c); r != "" {
		return r
	}
	return p.defaultColor
}

func (p Palette) lookup(c string) string {
	c = strings.TrimSpace(c)
	if IsHexColor(c) {
		return c
	}
	if name, ok := CSSVar(c); ok {
		if v := p.vars[strings.ToLower(name)]; IsHexColor(v) {
			return v
		}
	}
	return ""
}
