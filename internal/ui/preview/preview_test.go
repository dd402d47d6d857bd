package preview

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/glint/internal/highlight"
	"github.com/zjrosen/glint/internal/pubsub"
	"github.com/zjrosen/glint/internal/render"
)

func testFrame() render.Frame {
	return render.Frame{
		Seq:  1,
		Path: "/tmp/notes.md",
		Text: "x TODO y",
		Segments: []render.Segment{
			{Text: "x ", Start: 0, End: 2},
			{Text: "TODO", Start: 2, End: 6, Styled: true, Color: "#FF8800", RuleID: "todo"},
			{Text: " y", Start: 6, End: 8},
		},
		Spans:        []highlight.Span{{Start: 2, End: 6, RuleID: "todo"}},
		Enabled:      true,
		RulesVersion: 3,
	}
}

func asciiRenderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(&bytes.Buffer{})
	r.SetColorProfile(termenv.Ascii)
	return r
}

func newModel(t *testing.T, opts ...Option) (Model, *Surface) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s := NewSurface()
	t.Cleanup(func() { _ = s.Close() })
	opts = append([]Option{WithRenderer(asciiRenderer())}, opts...)
	return New(ctx, s, render.NewPalette(nil, ""), opts...), s
}

func TestSurface_UpdateAfterClose(t *testing.T) {
	s := NewSurface()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Update(context.Background(), testFrame()), render.ErrSurfaceClosed)
}

func TestSurface_CanceledContext(t *testing.T) {
	s := NewSurface()
	defer s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Update(ctx, testFrame()), context.Canceled)
}

func TestSurface_DeliversFrames(t *testing.T) {
	s := NewSurface()
	defer s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx)
	require.NoError(t, s.Update(ctx, testFrame()))

	select {
	case ev := <-ch:
		require.Equal(t, pubsub.FrameReady, ev.Type)
		require.Equal(t, "x TODO y", ev.Payload.Text)
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}
}

func TestModel_WaitingView(t *testing.T) {
	m, _ := newModel(t)
	require.Contains(t, m.View(), "waiting for document")
}

func TestModel_FrameUpdatesView(t *testing.T) {
	m, _ := newModel(t)
	updated, cmd := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	require.Nil(t, cmd)

	updated, cmd = updated.Update(pubsub.Event[render.Frame]{Type: pubsub.FrameReady, Payload: testFrame()})
	require.NotNil(t, cmd, "model keeps listening")

	view := updated.View()
	require.Contains(t, view, "x TODO y")
	require.Contains(t, view, "notes.md")
	require.Contains(t, view, "highlighting on")
	require.Contains(t, view, "1 spans")
	require.Contains(t, view, "rules v3")
}

func TestModel_DiagnosticsPanel(t *testing.T) {
	m, _ := newModel(t)
	f := testFrame()
	f.Diagnostics = []highlight.Diagnostic{{RuleID: "bad", RuleName: "Bad", Err: errors.New("boom")}}

	var updated tea.Model = m
	updated, _ = updated.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	updated, _ = updated.Update(pubsub.Event[render.Frame]{Type: pubsub.FrameReady, Payload: f})
	require.Contains(t, updated.View(), "1 rule(s) failed")
	require.NotContains(t, updated.View(), "boom")

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	require.Contains(t, updated.View(), "rule bad (Bad): boom")
}

func TestModel_Toggle(t *testing.T) {
	var got []bool
	m, _ := newModel(t, WithToggle(func(enabled bool) error {
		got = append(got, enabled)
		return nil
	}))

	var updated tea.Model = m
	updated, _ = updated.Update(pubsub.Event[render.Frame]{Type: pubsub.FrameReady, Payload: testFrame()})

	_, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	require.NotNil(t, cmd)
	msg := cmd()
	require.Equal(t, []bool{false}, got)

	updated, _ = updated.Update(msg)
	require.NotContains(t, updated.View(), "toggle failed")
}

func TestModel_ToggleFailureShowsStatus(t *testing.T) {
	m, _ := newModel(t, WithToggle(func(bool) error { return errors.New("disk full") }))

	var updated tea.Model = m
	updated, _ = updated.Update(tea.WindowSizeMsg{Width: 120, Height: 10})
	updated, _ = updated.Update(pubsub.Event[render.Frame]{Type: pubsub.FrameReady, Payload: testFrame()})
	_, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	updated, _ = updated.Update(cmd())

	require.Contains(t, updated.View(), "toggle failed: disk full")
}

func TestModel_ToggleWithoutCallback(t *testing.T) {
	m, _ := newModel(t)
	var updated tea.Model = m
	updated, _ = updated.Update(pubsub.Event[render.Frame]{Type: pubsub.FrameReady, Payload: testFrame()})
	_, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	require.Nil(t, cmd)
	require.NotContains(t, updated.View(), "t toggle")
}

func TestModel_HeaderTruncatedToWidth(t *testing.T) {
	m, _ := newModel(t)
	var updated tea.Model = m
	updated, _ = updated.Update(tea.WindowSizeMsg{Width: 20, Height: 5})
	updated, _ = updated.Update(pubsub.Event[render.Frame]{Type: pubsub.FrameReady, Payload: testFrame()})

	header := updated.(Model).header()
	require.LessOrEqual(t, lipgloss.Width(header), 20)
	require.Contains(t, header, "…")
}

func TestModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	} {
		m, _ := newModel(t)
		_, cmd := m.Update(key)
		require.NotNil(t, cmd, key.String())
		require.IsType(t, tea.QuitMsg{}, cmd(), key.String())
	}
}

func TestModel_Program(t *testing.T) {
	m, s := newModel(t)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 12))

	f := testFrame()
	f.Text = "hello TODO world"
	f.Segments = []render.Segment{{Text: "hello TODO world", Start: 0, End: 16}}
	require.NoError(t, s.Update(context.Background(), f))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("hello TODO world"))
	}, teatest.WithDuration(3*time.Second))

	f.Seq = 2
	f.Enabled = false
	f.RulesVersion = 4
	require.NoError(t, s.Update(context.Background(), f))
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("highlighting off"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	final := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(Model)
	require.Equal(t, uint64(4), final.Frame().RulesVersion)
}

func TestModel_HelpToggle(t *testing.T) {
	m, _ := newModel(t)
	var updated tea.Model = m
	updated, _ = updated.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	updated, _ = updated.Update(pubsub.Event[render.Frame]{Type: pubsub.FrameReady, Payload: testFrame()})
	require.NotContains(t, updated.View(), "page down")

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	require.Contains(t, updated.View(), "page down")
}
