// Package document supplies the text being highlighted and announces when it
// changes. A Host plays the part an editor would: it holds the active
// document and publishes Edited and Switched changes on a broker.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/glint/internal/log"
	"github.com/zjrosen/glint/internal/pubsub"
	"github.com/zjrosen/glint/internal/watcher"
)

// Kind distinguishes text edits from a switch of the active document.
type Kind int

const (
	Edited Kind = iota
	Switched
)

func (k Kind) String() string {
	switch k {
	case Edited:
		return "edited"
	case Switched:
		return "switched"
	default:
		return "unknown"
	}
}

// EventType maps k to the broker event type.
func (k Kind) EventType() pubsub.EventType {
	if k == Switched {
		return pubsub.DocumentSwitched
	}
	return pubsub.DocumentEdited
}

// Change carries the full text of the active document after a change.
type Change struct {
	Kind Kind
	Path string
	Text string
}

// Host holds the active document.
type Host struct {
	mu       sync.Mutex
	path     string
	text     string
	broker   *pubsub.Broker[Change]
	debounce time.Duration
	watcher  *watcher.Watcher
}

// Option configures a Host.
type Option func(*Host)

// WithDebounce sets the watch debounce.
func WithDebounce(d time.Duration) Option {
	return func(h *Host) { h.debounce = d }
}

// NewHost returns a Host with no active document.
func NewHost(opts ...Option) *Host {
	h := &Host{
		broker:   pubsub.NewBroker[Change](pubsub.WithBuffer(4), pubsub.WithDropOldest()),
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open makes path the active document and publishes Switched. A file that
// does not exist yet reads as empty text.
func (h *Host) Open(ctx context.Context, path string) (Change, error) {
	if err := ctx.Err(); err != nil {
		return Change{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Change{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	text, err := ReadFile(abs)
	if err != nil {
		return Change{}, err
	}

	h.mu.Lock()
	h.path = abs
	h.text = text
	w := h.watcher
	h.mu.Unlock()

	if w != nil {
		if err := w.Add(abs); err != nil {
			log.ErrorErr(log.CatWatcher, "watching document failed", err, "path", abs)
		}
	}

	c := Change{Kind: Switched, Path: abs, Text: text}
	h.broker.Publish(c.Kind.EventType(), c)
	return c, nil
}

// SetText replaces the active document's text and publishes Edited. Used for
// documents that do not live on disk, such as stdin.
func (h *Host) SetText(text string) Change {
	text = strings.ToValidUTF8(text, "�")
	h.mu.Lock()
	h.text = text
	c := Change{Kind: Edited, Path: h.path, Text: text}
	h.mu.Unlock()

	h.broker.Publish(c.Kind.EventType(), c)
	return c
}

// Text returns the active document's text.
func (h *Host) Text() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.text
}

// Path returns the active document's path, or "" when none is open.
func (h *Host) Path() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.path
}

// Current returns the active document as a Switched change.
func (h *Host) Current() Change {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Change{Kind: Switched, Path: h.path, Text: h.text}
}

// Subscribe returns a channel of document changes.
func (h *Host) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return h.broker.Subscribe(ctx)
}

// Broker exposes the change broker for pubsub.Subscriber consumers.
func (h *Host) Broker() *pubsub.Broker[Change] {
	return h.broker
}

// Watch re-reads the active document when it changes on disk and publishes
// Edited when its text differs. It blocks until ctx is done.
func (h *Host) Watch(ctx context.Context) error {
	h.mu.Lock()
	if h.watcher != nil {
		h.mu.Unlock()
		return errors.New("document host is already watching")
	}
	var paths []string
	if h.path != "" {
		paths = append(paths, h.path)
	}
	w, err := watcher.New(watcher.Config{Paths: paths, DebounceDur: h.debounce})
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.watcher = w
	h.mu.Unlock()

	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}
	defer func() {
		_ = w.Stop()
		h.mu.Lock()
		h.watcher = nil
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-changes:
			if !ok {
				return nil
			}
			h.refresh(path)
		}
	}
}

// refresh reloads path if it is still the active document.
func (h *Host) refresh(path string) {
	if path != h.Path() {
		return
	}
	text, err := ReadFile(path)
	if err != nil {
		log.ErrorErr(log.CatWatcher, "re-reading document failed", err, "path", path)
		return
	}

	h.mu.Lock()
	if path != h.path || text == h.text {
		h.mu.Unlock()
		return
	}
	h.text = text
	h.mu.Unlock()

	log.Debug(log.CatWatcher, "document changed", "path", path, "bytes", len(text))
	h.broker.Publish(pubsub.DocumentEdited, Change{Kind: Edited, Path: path, Text: text})
}

// Close stops publishing.
func (h *Host) Close() {
	h.broker.Close()
}

// ReadFile returns the text of path. A missing file is empty text.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-selected document
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// ReadAll returns the text of r, used for stdin documents.
func ReadAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
