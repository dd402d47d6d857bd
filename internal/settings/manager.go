package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/glint/internal/kvstore"
	"github.com/zjrosen/glint/internal/log"
	"github.com/zjrosen/glint/internal/pubsub"
	"github.com/zjrosen/glint/internal/rules"
	"github.com/zjrosen/glint/internal/tracing"
)

// ErrInvalidColor is returned by SetDefaultTextColor for unusable colors.
var ErrInvalidColor = errors.New("invalid color")

// Manager is the only writer of the rule set. Every mutation is persisted
// before a new Snapshot is published to subscribers.
type Manager struct {
	mu      sync.Mutex
	kv      kvstore.Store
	key     string
	store   *rules.Store
	enabled bool
	color   string
	version uint64
	broker  *pubsub.Broker[Snapshot]
	tracer  trace.Tracer
	backend string
}

// Option configures a Manager.
type Option func(*Manager)

// WithTracer traces loads and saves.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

// WithKey stores the blob under key instead of Key.
func WithKey(key string) Option {
	return func(m *Manager) { m.key = key }
}

// WithBackendName labels trace spans with the storage backend.
func WithBackendName(name string) Option {
	return func(m *Manager) { m.backend = name }
}

// NewManager returns a Manager holding the defaults. Call Load to read
// persisted settings.
func NewManager(kv kvstore.Store, defaults rules.List, opts ...Option) *Manager {
	m := &Manager{
		kv:      kv,
		key:     Key,
		store:   rules.NewStore(defaults),
		enabled: true,
		version: 1,
		broker:  pubsub.NewBroker[Snapshot](pubsub.WithBuffer(4), pubsub.WithDropOldest()),
		tracer:  noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads the stored blob and replaces the in-memory state. Repairs are
// logged and returned; they are not written back.
func (m *Manager) Load(ctx context.Context) ([]rules.Issue, error) {
	_, issues, err := m.Reload(ctx)
	return issues, err
}

// Reload re-reads storage. When the content differs from the current state
// the version is bumped and RulesReloaded is published.
func (m *Manager) Reload(ctx context.Context) (bool, []rules.Issue, error) {
	ctx, span := m.tracer.Start(ctx, tracing.SpanSettingsLoad,
		trace.WithAttributes(attribute.String(tracing.AttrStoreBackend, m.backend)))
	defer span.End()

	raw, _, err := m.kv.Get(ctx, m.key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, nil, fmt.Errorf("loading settings: %w", err)
	}

	m.mu.Lock()
	s, issues := Decode(raw, m.store.Defaults())
	for _, issue := range issues {
		log.Warn(log.CatStore, "repaired settings", "issue", issue.String())
	}
	span.SetAttributes(attribute.Int(tracing.AttrIssueCount, len(issues)))

	before := m.snapshotLocked()
	m.store.Replace(s.CustomPatterns)
	m.enabled = s.EnableGlobalSyntaxHighlighting
	m.color = s.DefaultTextColor
	changed := !before.sameContent(m.snapshotLocked())
	if changed {
		m.version++
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	span.SetAttributes(attribute.Int64(tracing.AttrRulesVersion, int64(snap.Version)))
	if changed {
		log.Info(log.CatStore, "settings reloaded", "version", snap.Version, "rules", len(snap.Rules))
		m.broker.Publish(pubsub.RulesReloaded, snap)
	}
	return changed, issues, nil
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Version:          m.version,
		Enabled:          m.enabled,
		DefaultTextColor: m.color,
		Rules:            m.store.List(),
	}
}

// IsBuiltin reports whether id names a default rule.
func (m *Manager) IsBuiltin(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.IsBuiltin(id)
}

// Mutate applies fn to the rule store, persists the result and publishes
// RulesSaved. If fn or the save fails the store is left unchanged.
func (m *Manager) Mutate(ctx context.Context, fn func(*rules.Store) error) (Snapshot, error) {
	return m.apply(ctx, func() error { return fn(m.store) })
}

// SetEnabled sets the master highlighting toggle.
func (m *Manager) SetEnabled(ctx context.Context, enabled bool) (Snapshot, error) {
	return m.apply(ctx, func() error {
		m.enabled = enabled
		return nil
	})
}

// SetDefaultTextColor sets the color used for unstyled text. "" selects the
// terminal's own foreground.
func (m *Manager) SetDefaultTextColor(ctx context.Context, color string) (Snapshot, error) {
	if !ValidTextColor(color) {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	return m.apply(ctx, func() error {
		m.color = color
		return nil
	})
}

// Reset restores the default rules and turns highlighting on.
func (m *Manager) Reset(ctx context.Context) (Snapshot, error) {
	return m.apply(ctx, func() error {
		m.store.Reset()
		m.enabled = true
		m.color = ""
		return nil
	})
}

// ImportRules normalizes loaded (as produced by Import) and replaces the
// rule list with it.
func (m *Manager) ImportRules(ctx context.Context, loaded any) (Snapshot, []rules.Issue, error) {
	var issues []rules.Issue
	snap, err := m.Mutate(ctx, func(s *rules.Store) error {
		var normalized rules.List
		normalized, issues = rules.NormalizeAndMerge(loaded, s.Defaults())
		s.Replace(normalized)
		return nil
	})
	return snap, issues, err
}

// Save persists the current state without changing it. Used to write back
// repairs made by Load.
func (m *Manager) Save(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(ctx, m.snapshotLocked())
}

func (m *Manager) apply(ctx context.Context, fn func() error) (Snapshot, error) {
	m.mu.Lock()
	prev := m.snapshotLocked()

	restore := func() {
		m.store.Replace(prev.Rules)
		m.enabled = prev.Enabled
		m.color = prev.DefaultTextColor
	}

	if err := fn(); err != nil {
		restore()
		m.mu.Unlock()
		return Snapshot{}, err
	}

	m.version++
	next := m.snapshotLocked()
	if err := m.saveLocked(ctx, next); err != nil {
		restore()
		m.version = prev.Version
		m.mu.Unlock()
		return Snapshot{}, err
	}
	m.mu.Unlock()

	log.Debug(log.CatStore, "settings saved", "version", next.Version, "rules", len(next.Rules))
	m.broker.Publish(pubsub.RulesSaved, next)
	return next, nil
}

func (m *Manager) saveLocked(ctx context.Context, snap Snapshot) error {
	ctx, span := m.tracer.Start(ctx, tracing.SpanSettingsSave, trace.WithAttributes(
		attribute.String(tracing.AttrStoreBackend, m.backend),
		attribute.Int64(tracing.AttrRulesVersion, int64(snap.Version)),
		attribute.Int(tracing.AttrRuleCount, len(snap.Rules)),
	))
	defer span.End()

	data, err := Encode(snap.Settings())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := m.kv.Set(ctx, m.key, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatStore, "saving settings failed", err)
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// Subscribe returns a channel of snapshots published after each save or
// changed reload.
func (m *Manager) Subscribe(ctx context.Context) <-chan pubsub.Event[Snapshot] {
	return m.broker.Subscribe(ctx)
}

// Broker exposes the snapshot broker for pubsub.Subscriber consumers.
func (m *Manager) Broker() *pubsub.Broker[Snapshot] {
	return m.broker
}

// Close stops publishing. The kvstore is owned by the caller.
func (m *Manager) Close() {
	m.broker.Close()
}
