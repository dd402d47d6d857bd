// Package highlight applies an ordered rule list to document text and
// produces non-overlapping styled spans.
//
// Every enabled rule is scanned over the whole text. Where spans from
// different rules overlap, the rule later in the list wins and the losing
// span is discarded whole; spans are never clipped. Offsets are rune
// offsets into the text.
package highlight

import (
	"errors"
	"fmt"
)

// Span is a styled half-open rune range [Start, End).
type Span struct {
	Start  int
	End    int
	Class  string
	Color  string
	RuleID string
}

// Len returns the number of runes covered.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether s and o share at least one rune.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

var (
	ErrInvalidFlags   = errors.New("invalid flags")
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrUnknownGroup   = errors.New("unknown capture group")
	ErrMatchTimeout   = errors.New("match timeout")
	ErrCanceled       = errors.New("pass canceled")
)

// Diagnostic is a non-fatal per-rule problem found during a pass. The rule
// contributed no spans.
type Diagnostic struct {
	RuleID   string
	RuleName string
	Err      error
}

// IsTimeout reports whether the rule hit the match timeout.
func (d Diagnostic) IsTimeout() bool {
	return errors.Is(d.Err, ErrMatchTimeout)
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("rule %s (%s): %v", d.RuleID, d.RuleName, d.Err)
}

// Result is the outcome of one pass. Spans are sorted by Start and never
// overlap.
type Result struct {
	Spans       []Span
	Diagnostics []Diagnostic
}
