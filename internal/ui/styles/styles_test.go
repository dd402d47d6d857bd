package styles

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

func TestNewPreview_AsciiHasNoEscapes(t *testing.T) {
	r := lipgloss.NewRenderer(&bytes.Buffer{})
	r.SetColorProfile(termenv.Ascii)
	s := NewPreview(r)

	require.Equal(t, "on", s.StatusOn.Render("on"))
	require.Equal(t, "! boom", s.Problem.Render("! boom"))
}

func TestNewPreview_TrueColor(t *testing.T) {
	r := lipgloss.NewRenderer(&bytes.Buffer{})
	r.SetColorProfile(termenv.TrueColor)
	r.SetHasDarkBackground(true)
	s := NewPreview(r)

	out := s.Problem.Render("x")
	require.Contains(t, out, "\x1b[")
	require.Contains(t, out, "x")
}
