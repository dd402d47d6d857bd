// Package rules defines pattern rules and the ordered rule store.
//
// A rule pairs a regular expression with a style class and a color. Rules are
// evaluated in list order and later rules win where their matches overlap, so
// the order of a List is significant everywhere in this package.
package rules

import (
	"regexp"
	"slices"
	"strconv"
)

// PatternRule is one user-editable highlighting rule.
type PatternRule struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Regex   string `json:"regex" yaml:"regex"`
	Flags   string `json:"flags" yaml:"flags"`
	Class   string `json:"cls" yaml:"cls"`
	Color   string `json:"color" yaml:"color"`
	// CaptureGroup selects a numbered or named group as the highlighted
	// range. Empty means the whole match.
	CaptureGroup string `json:"captureGroup" yaml:"captureGroup"`
}

var groupNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// GroupNumber reports the capture group as a number when it is numeric.
func (r PatternRule) GroupNumber() (int, bool) {
	if r.CaptureGroup == "" {
		return 0, false
	}
	n, err := strconv.Atoi(r.CaptureGroup)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// validCaptureGroup reports whether g is empty, a non-negative group number
// or a syntactically valid group name.
func validCaptureGroup(g string) bool {
	if g == "" {
		return true
	}
	if n, err := strconv.Atoi(g); err == nil {
		return n >= 0
	}
	return groupNameRe.MatchString(g)
}

// List is an ordered rule collection. Position is precedence.
type List []PatternRule

// Clone returns a copy that shares no backing array with l.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	return slices.Clone(l)
}

// Enabled returns the enabled rules in their original order.
func (l List) Enabled() List {
	out := make(List, 0, len(l))
	for _, r := range l {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Index returns the position of the rule with id, or -1.
func (l List) Index(id string) int {
	return slices.IndexFunc(l, func(r PatternRule) bool { return r.ID == id })
}

// IDs returns the rule ids in order.
func (l List) IDs() []string {
	ids := make([]string, len(l))
	for i, r := range l {
		ids[i] = r.ID
	}
	return ids
}

// Equal reports whether both lists hold the same rules in the same order.
func (l List) Equal(other List) bool {
	return slices.Equal(l, other)
}
