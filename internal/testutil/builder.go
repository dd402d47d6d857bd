// Package testutil builds rule lists and persisted settings blobs for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/glint/internal/json"
	"github.com/zjrosen/glint/internal/kvstore"
	"github.com/zjrosen/glint/internal/rules"
)

// SettingsKey is the key settings blobs are stored under.
const SettingsKey = "settings"

// Builder accumulates rules and top-level settings fields.
type Builder struct {
	t        *testing.T
	rules    rules.List
	disabled bool
	color    string
	extra    map[string]any
}

// NewBuilder returns an empty builder.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t}
}

// WithRule appends a rule. Without options the rule is enabled and matches
// its id literally.
func (b *Builder) WithRule(id string, opts ...RuleOption) *Builder {
	r := defaultRule(id)
	for _, opt := range opts {
		opt(&r)
	}
	b.rules = append(b.rules, r)
	return b
}

// WithDefaults appends the built-in rules.
func (b *Builder) WithDefaults() *Builder {
	b.rules = append(b.rules, rules.Defaults()...)
	return b
}

// WithHighlightingOff clears the master switch in the blob.
func (b *Builder) WithHighlightingOff() *Builder {
	b.disabled = true
	return b
}

// WithDefaultTextColor sets defaultTextColor in the blob.
func (b *Builder) WithDefaultTextColor(color string) *Builder {
	b.color = color
	return b
}

// WithField sets an arbitrary top-level field, overriding the built ones.
// Used to write malformed blobs.
func (b *Builder) WithField(key string, value any) *Builder {
	if b.extra == nil {
		b.extra = map[string]any{}
	}
	b.extra[key] = value
	return b
}

// Rules returns a copy of the accumulated rules.
func (b *Builder) Rules() rules.List {
	return b.rules.Clone()
}

// Raw returns the settings blob as persisted JSON.
func (b *Builder) Raw() []byte {
	b.t.Helper()
	entries := make([]any, 0, len(b.rules))
	for _, r := range b.rules {
		entries = append(entries, r.Map())
	}
	blob := map[string]any{
		"enableGlobalSyntaxHighlighting": !b.disabled,
		"defaultTextColor":               b.color,
		"customPatterns":                 entries,
	}
	for k, v := range b.extra {
		blob[k] = v
	}
	data, err := json.Marshal(blob)
	require.NoError(b.t, err)
	return data
}

// Seed writes the blob to kv under SettingsKey.
func (b *Builder) Seed(kv kvstore.Store) {
	b.t.Helper()
	require.NoError(b.t, kv.Set(context.Background(), SettingsKey, b.Raw()))
}
