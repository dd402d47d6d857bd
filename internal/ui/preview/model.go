// Package preview is the interactive terminal surface behind 'glint view'.
// It shows the highlighted document in a scrollable viewport and repaints
// whenever the coordinator pushes a new frame.
package preview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/glint/internal/keys"
	"github.com/zjrosen/glint/internal/log"
	"github.com/zjrosen/glint/internal/pubsub"
	"github.com/zjrosen/glint/internal/render"
	"github.com/zjrosen/glint/internal/ui/styles"
)

// ToggleFunc flips the master highlighting switch.
type ToggleFunc func(enabled bool) error

type toggledMsg struct{ err error }

// Model is the preview program state.
type Model struct {
	listener *pubsub.ContinuousListener[render.Frame]
	renderer *lipgloss.Renderer
	styles   styles.Preview
	palette  render.Palette
	toggle   ToggleFunc

	keys      keys.PreviewKeyMap
	help      help.Model
	viewport  viewport.Model
	frame     render.Frame
	hasFrame  bool
	showDiags bool
	status    string
	width     int
	height    int
}

// Option configures a Model.
type Option func(*Model)

// WithRenderer sets the lipgloss renderer used to paint frames.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(m *Model) { m.renderer = r }
}

// WithToggle enables the 't' key.
func WithToggle(fn ToggleFunc) Option {
	return func(m *Model) { m.toggle = fn }
}

// New returns a Model fed by src.
func New(ctx context.Context, src pubsub.Subscriber[render.Frame], palette render.Palette, opts ...Option) Model {
	m := Model{
		listener: pubsub.NewContinuousListener(ctx, src),
		renderer: lipgloss.DefaultRenderer(),
		palette:  palette,
		keys:     keys.DefaultPreviewKeyMap(),
		help:     help.New(),
		viewport: viewport.New(0, 0),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.keys.Toggle.SetEnabled(m.toggle != nil)
	m.styles = styles.NewPreview(m.renderer)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.listener.Listen()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[render.Frame]:
		m.frame = msg.Payload
		m.hasFrame = true
		m.refresh()
		return m, m.listener.Listen()

	case toggledMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatUI, "toggle failed", msg.err)
			m.status = "toggle failed: " + msg.err.Error()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Down):
			m.viewport.ScrollDown(1)
		case key.Matches(msg, m.keys.Up):
			m.viewport.ScrollUp(1)
		case key.Matches(msg, m.keys.PageDown):
			m.viewport.PageDown()
		case key.Matches(msg, m.keys.PageUp):
			m.viewport.PageUp()
		case key.Matches(msg, m.keys.Top):
			m.viewport.GotoTop()
		case key.Matches(msg, m.keys.Bottom):
			m.viewport.GotoBottom()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Problems):
			m.showDiags = !m.showDiags
			m.refresh()
		case key.Matches(msg, m.keys.Toggle):
			if !m.hasFrame {
				return m, nil
			}
			want := !m.frame.Enabled
			fn := m.toggle
			m.status = ""
			return m, func() tea.Msg { return toggledMsg{err: fn(want)} }
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) refresh() {
	if !m.hasFrame {
		return
	}
	palette := m.palette
	if m.frame.DefaultColor != "" {
		palette = palette.WithDefault(m.frame.DefaultColor)
	}
	body := render.ANSIWith(m.renderer, m.frame.Segments, palette)
	if m.showDiags && len(m.frame.Diagnostics) > 0 {
		var b strings.Builder
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteByte('\n')
		}
		b.WriteString("\n")
		for _, d := range m.frame.Diagnostics {
			b.WriteString(m.styles.Problem.Render("! " + d.String()))
			b.WriteByte('\n')
		}
		body = b.String()
	}
	m.viewport.SetContent(body)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.hasFrame {
		return "waiting for document…"
	}
	footer := m.footer()
	vp := m.viewport
	if m.height > 0 {
		vp.Height = max(m.height-1-lipgloss.Height(footer), 1)
	}
	return m.header() + "\n" + vp.View() + "\n" + footer
}

func (m Model) header() string {
	state := m.styles.StatusOn.Render("highlighting on")
	if !m.frame.Enabled {
		state = m.styles.StatusOff.Render("highlighting off")
	}
	name := m.frame.Path
	if name == "" {
		name = "(stdin)"
	}
	sep := m.styles.Separator.Render(" · ")
	line := m.styles.Header.Render("glint · "+name) + sep + state + sep +
		m.styles.Footer.Render(fmt.Sprintf("%d spans · rules v%d", len(m.frame.Spans), m.frame.RulesVersion))
	return m.fit(line)
}

func (m Model) footer() string {
	var parts []string
	if n := len(m.frame.Diagnostics); n > 0 {
		parts = append(parts, fmt.Sprintf("%d rule(s) failed", n))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	parts = append(parts, m.help.View(m.keys))
	return m.styles.Footer.Render(m.fit(strings.Join(parts, " · ")))
}

func (m Model) fit(s string) string {
	if m.width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, m.width, "…")
	}
	return strings.Join(lines, "\n")
}

// Frame returns the last frame received.
func (m Model) Frame() render.Frame {
	return m.frame
}
