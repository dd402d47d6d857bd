package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestPreview_KeyAssignments(t *testing.T) {
	km := DefaultPreviewKeyMap()
	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{"Up", km.Up, []string{"k", "up"}},
		{"Down", km.Down, []string{"j", "down"}},
		{"Top", km.Top, []string{"g", "home"}},
		{"Bottom", km.Bottom, []string{"G", "end"}},
		{"Toggle", km.Toggle, []string{"t"}},
		{"Problems", km.Problems, []string{"d"}},
		{"Quit", km.Quit, []string{"q", "esc", "ctrl+c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
			require.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestPreview_Matches(t *testing.T) {
	km := DefaultPreviewKeyMap()
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}, km.Down))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit))
	require.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, km.Quit))
}

func TestPreview_NoDuplicateKeys(t *testing.T) {
	seen := map[string]string{}
	for _, group := range DefaultPreviewKeyMap().FullHelp() {
		for _, b := range group {
			for _, k := range b.Keys() {
				prev, dup := seen[k]
				require.False(t, dup, "key %q bound to %q and %q", k, prev, b.Help().Desc)
				seen[k] = b.Help().Desc
			}
		}
	}
}

func TestPreview_ShortHelpIsSubsetOfFull(t *testing.T) {
	km := DefaultPreviewKeyMap()
	full := map[string]bool{}
	for _, group := range km.FullHelp() {
		for _, b := range group {
			full[b.Help().Desc] = true
		}
	}
	for _, b := range km.ShortHelp() {
		require.True(t, full[b.Help().Desc], b.Help().Desc)
	}
}
