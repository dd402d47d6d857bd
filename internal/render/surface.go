package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/glint/internal/highlight"
	"github.com/zjrosen/glint/internal/log"
)

// Frame is everything a surface needs to paint one pass.
type Frame struct {
	Seq          uint64
	Path         string
	Text         string
	Segments     []Segment
	Spans        []highlight.Span
	Diagnostics  []highlight.Diagnostic
	Enabled      bool
	DefaultColor string
	RulesVersion uint64
}

// ErrSurfaceClosed is returned by Update after Close.
var ErrSurfaceClosed = errors.New("surface closed")

// clearScreen moves the cursor home and erases the display.
const clearScreen = "\x1b[H\x1b[2J"

// WriterSurface paints each frame to an io.Writer.
type WriterSurface struct {
	mu       sync.Mutex
	w        io.Writer
	format   Format
	palette  Palette
	renderer *lipgloss.Renderer
	clear    bool
	closed   bool
}

// SurfaceOption configures a WriterSurface.
type SurfaceOption func(*WriterSurface)

// WithClearScreen clears the terminal before each ANSI frame, for --watch.
func WithClearScreen() SurfaceOption {
	return func(s *WriterSurface) { s.clear = true }
}

// WithRenderer sets the lipgloss renderer used for ANSI output.
func WithRenderer(r *lipgloss.Renderer) SurfaceOption {
	return func(s *WriterSurface) { s.renderer = r }
}

// NewWriterSurface returns a surface writing format to w.
func NewWriterSurface(w io.Writer, format Format, palette Palette, opts ...SurfaceOption) *WriterSurface {
	s := &WriterSurface{
		w:        w,
		format:   format,
		palette:  palette,
		renderer: lipgloss.DefaultRenderer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update paints f.
func (s *WriterSurface) Update(ctx context.Context, f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSurfaceClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	palette := s.palette
	if f.DefaultColor != "" {
		palette = palette.WithDefault(f.DefaultColor)
	}

	var out string
	switch s.format {
	case FormatHTML:
		out = fmt.Sprintf("<pre class=\"glint\">%s</pre>\n", HTML(f.Segments, palette))
	case FormatPlain:
		out = Plain(f.Segments)
	default:
		out = ANSIWith(s.renderer, f.Segments, palette)
		if s.clear {
			out = clearScreen + out
		}
	}

	if _, err := io.WriteString(s.w, out); err != nil {
		return fmt.Errorf("write frame %d: %w", f.Seq, err)
	}
	log.Debug(log.CatRender, "frame written", "seq", f.Seq, "format", s.format, "segments", len(f.Segments))
	return nil
}

// Close stops further updates. The writer is not closed.
func (s *WriterSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
