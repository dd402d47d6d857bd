package settings

import "github.com/zjrosen/glint/internal/rules"

// Snapshot is an immutable view of the settings at one version. Rules is a
// private copy; holders may read it freely.
type Snapshot struct {
	Version          uint64
	Enabled          bool
	DefaultTextColor string
	Rules            rules.List
}

// Settings converts the snapshot back into a persistable blob.
func (s Snapshot) Settings() Settings {
	return Settings{
		EnableGlobalSyntaxHighlighting: s.Enabled,
		DefaultTextColor:               s.DefaultTextColor,
		CustomPatterns:                 s.Rules.Clone(),
	}
}

// sameContent ignores Version.
func (s Snapshot) sameContent(o Snapshot) bool {
	return s.Enabled == o.Enabled &&
		s.DefaultTextColor == o.DefaultTextColor &&
		s.Rules.Equal(o.Rules)
}
