// Package coordinator keeps highlighting surfaces in sync with the active
// document and the rule set.
//
// Two streams feed it: document changes and settings snapshots. Each records
// the latest value and wakes a single worker; values that arrive while a pass
// is running overwrite the pending one instead of queueing. A pass highlights
// once and pushes the same Frame to every attached surface.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/glint/internal/document"
	"github.com/zjrosen/glint/internal/highlight"
	"github.com/zjrosen/glint/internal/log"
	"github.com/zjrosen/glint/internal/pubsub"
	"github.com/zjrosen/glint/internal/render"
	"github.com/zjrosen/glint/internal/rules"
	"github.com/zjrosen/glint/internal/settings"
	"github.com/zjrosen/glint/internal/tracing"
)

// Frame is the unit pushed to surfaces.
type Frame = render.Frame

// Surface is a mounted highlighting view.
type Surface interface {
	Update(ctx context.Context, f Frame) error
	Close() error
}

// Highlighter computes spans for text. *highlight.Engine implements it.
type Highlighter interface {
	Highlight(ctx context.Context, text string, list rules.List) highlight.Result
}

// ErrorReporter is told about surfaces that failed and were detached.
type ErrorReporter func(surfaceID string, err error)

var (
	// ErrDuplicateSurface is returned by Attach for an id already in use.
	ErrDuplicateSurface = errors.New("surface already attached")
	// ErrUnknownSurface is returned by Detach for an id not attached.
	ErrUnknownSurface = errors.New("surface not attached")
)

type attached struct {
	id      string
	surface Surface
	fresh   bool // has not received a frame yet
}

// rendered identifies the inputs of the last frame.
type rendered struct {
	valid   bool
	path    string
	text    string
	version uint64
	frame   Frame
}

// Coordinator schedules highlight passes.
type Coordinator struct {
	hl       Highlighter
	debounce time.Duration
	report   ErrorReporter
	tracer   trace.Tracer

	mu       sync.Mutex
	doc      document.Change
	snap     settings.Snapshot
	surfaces []*attached
	signal   chan struct{}

	passMu sync.Mutex
	last   rendered
	seq    uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce waits d after the last change before running a pass.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.debounce = d }
}

// WithErrorReporter replaces the default reporter, which logs.
func WithErrorReporter(r ErrorReporter) Option {
	return func(c *Coordinator) { c.report = r }
}

// WithTracer traces each pass.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// WithSnapshot sets the initial rule set.
func WithSnapshot(s settings.Snapshot) Option {
	return func(c *Coordinator) { c.snap = s }
}

// WithDocument sets the initial document.
func WithDocument(d document.Change) Option {
	return func(c *Coordinator) { c.doc = d }
}

// New returns a Coordinator with no surfaces. Until a snapshot arrives
// highlighting is on with no rules.
func New(hl Highlighter, opts ...Option) *Coordinator {
	c := &Coordinator{
		hl:     hl,
		snap:   settings.Snapshot{Enabled: true},
		signal: make(chan struct{}, 1),
		tracer: noop.NewTracerProvider().Tracer("noop"),
		report: func(id string, err error) {
			log.ErrorErr(log.CatCoord, "surface detached after failed update", err, "surface", id)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attach mounts s under id and renders the current state into it before
// returning.
func (c *Coordinator) Attach(ctx context.Context, id string, s Surface) error {
	c.mu.Lock()
	for _, a := range c.surfaces {
		if a.id == id {
			c.mu.Unlock()
			return fmt.Errorf("attach %q: %w", id, ErrDuplicateSurface)
		}
	}
	c.surfaces = append(c.surfaces, &attached{id: id, surface: s, fresh: true})
	c.mu.Unlock()

	log.Debug(log.CatCoord, "surface attached", "surface", id)
	return c.Flush(ctx)
}

// Detach unmounts and closes the surface with id.
func (c *Coordinator) Detach(id string) error {
	a := c.remove(id, nil)
	if a == nil {
		return fmt.Errorf("detach %q: %w", id, ErrUnknownSurface)
	}
	log.Debug(log.CatCoord, "surface detached", "surface", id)
	return a.surface.Close()
}

// remove drops id from the surface list. When want is non-nil only that
// exact attachment is removed.
func (c *Coordinator) remove(id string, want *attached) *attached {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, a := range c.surfaces {
		if a.id == id && (want == nil || a == want) {
			c.surfaces = append(c.surfaces[:i:i], c.surfaces[i+1:]...)
			return a
		}
	}
	return nil
}

// Surfaces returns the attached surface ids in attach order.
func (c *Coordinator) Surfaces() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, len(c.surfaces))
	for i, a := range c.surfaces {
		ids[i] = a.id
	}
	return ids
}

// DocumentChanged records the latest document and wakes the worker.
func (c *Coordinator) DocumentChanged(d document.Change) {
	c.mu.Lock()
	c.doc = d
	c.mu.Unlock()
	c.wake()
}

// RulesChanged records the latest snapshot and wakes the worker.
func (c *Coordinator) RulesChanged(s settings.Snapshot) {
	c.mu.Lock()
	c.snap = s
	c.mu.Unlock()
	c.wake()
}

func (c *Coordinator) wake() {
	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// Run consumes both streams and runs passes until ctx is done. It returns
// nil on cancellation.
func (c *Coordinator) Run(ctx context.Context, docs pubsub.Subscriber[document.Change], snaps pubsub.Subscriber[settings.Snapshot]) error {
	var (
		docCh  <-chan pubsub.Event[document.Change]
		snapCh <-chan pubsub.Event[settings.Snapshot]
		timer  *time.Timer
	)
	if docs != nil {
		docCh = docs.Subscribe(ctx)
	}
	if snaps != nil {
		snapCh = snaps.Subscribe(ctx)
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-docCh:
			if !ok {
				docCh = nil
				continue
			}
			c.DocumentChanged(ev.Payload)

		case ev, ok := <-snapCh:
			if !ok {
				snapCh = nil
				continue
			}
			c.RulesChanged(ev.Payload)

		case <-c.signal:
			if c.debounce <= 0 {
				c.pass(ctx)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(c.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(c.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			c.pass(ctx)
		}
	}
}

// Flush runs one pass now, serialized with the worker.
func (c *Coordinator) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.pass(ctx)
	return nil
}

func (c *Coordinator) pass(ctx context.Context) {
	c.passMu.Lock()
	defer c.passMu.Unlock()

	c.mu.Lock()
	doc := c.doc
	snap := c.snap
	targets := make([]*attached, 0, len(c.surfaces))
	var fresh []*attached
	for _, a := range c.surfaces {
		targets = append(targets, a)
		if a.fresh {
			fresh = append(fresh, a)
		}
	}
	c.mu.Unlock()

	ctx, span := c.tracer.Start(ctx, tracing.SpanCoordinatorPass, trace.WithAttributes(
		attribute.String(tracing.AttrDocumentPath, doc.Path),
		attribute.Int64(tracing.AttrRulesVersion, int64(snap.Version)),
	))
	defer span.End()

	var frame Frame
	unchanged := c.last.valid &&
		c.last.path == doc.Path &&
		c.last.text == doc.Text &&
		c.last.version == snap.Version
	if unchanged {
		// Only surfaces that have never been painted need the frame.
		targets = fresh
		frame = c.last.frame
	}
	if len(targets) == 0 {
		span.AddEvent(tracing.EventPassSkipped)
		return
	}
	if !unchanged {
		frame = c.buildFrame(ctx, doc, snap)
	}
	span.SetAttributes(
		attribute.Int64(tracing.AttrFrameSeq, int64(frame.Seq)),
		attribute.Int(tracing.AttrSurfaceCount, len(targets)),
		attribute.Int(tracing.AttrSpanCount, len(frame.Spans)),
	)

	for _, a := range targets {
		if err := a.surface.Update(ctx, frame); err != nil {
			if c.remove(a.id, a) == nil {
				continue
			}
			span.AddEvent(tracing.EventSurfaceDetached, trace.WithAttributes(
				attribute.String(tracing.AttrSurfaceID, a.id),
				attribute.String(tracing.AttrErrorMessage, err.Error()),
			))
			_ = a.surface.Close()
			c.report(a.id, err)
			continue
		}
		c.mu.Lock()
		a.fresh = false
		c.mu.Unlock()
	}

	c.last = rendered{valid: true, path: doc.Path, text: doc.Text, version: snap.Version, frame: frame}
	log.Debug(log.CatCoord, "pass complete",
		"seq", frame.Seq, "surfaces", len(targets), "spans", len(frame.Spans), "enabled", frame.Enabled)
}

func (c *Coordinator) buildFrame(ctx context.Context, doc document.Change, snap settings.Snapshot) Frame {
	c.seq++
	f := Frame{
		Seq:          c.seq,
		Path:         doc.Path,
		Text:         doc.Text,
		Enabled:      snap.Enabled,
		DefaultColor: snap.DefaultTextColor,
		RulesVersion: snap.Version,
	}
	if !snap.Enabled {
		f.Segments = render.PlainSegments(doc.Text)
		return f
	}
	res := c.hl.Highlight(ctx, doc.Text, snap.Rules)
	f.Spans = res.Spans
	f.Diagnostics = res.Diagnostics
	f.Segments = render.Segments(doc.Text, res.Spans)
	return f
}
