// Package render turns highlight spans into segments and paints them as
// ANSI, HTML or plain text.
package render

import (
	"github.com/zjrosen/glint/internal/highlight"
)

// Segment is a run of text that is either plain or styled by one rule.
// Start and End are rune offsets into the source text.
type Segment struct {
	Text   string
	Start  int
	End    int
	Styled bool
	Class  string
	Color  string
	RuleID string
}

// Segments splits text into alternating plain and styled runs that cover it
// exactly once. spans must be sorted by Start; a span that is empty, out of
// range or overlaps an earlier one is ignored.
func Segments(text string, spans []highlight.Span) []Segment {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	out := make([]Segment, 0, 2*len(spans)+1)

	pos := 0
	for _, s := range spans {
		if s.Start < pos || s.Start >= s.End || s.End > len(runes) {
			continue
		}
		if s.Start > pos {
			out = append(out, Segment{Text: string(runes[pos:s.Start]), Start: pos, End: s.Start})
		}
		out = append(out, Segment{
			Text:   string(runes[s.Start:s.End]),
			Start:  s.Start,
			End:    s.End,
			Styled: true,
			Class:  s.Class,
			Color:  s.Color,
			RuleID: s.RuleID,
		})
		pos = s.End
	}
	if pos < len(runes) {
		out = append(out, Segment{Text: string(runes[pos:]), Start: pos, End: len(runes)})
	}
	return out
}

// PlainSegments returns text as a single unstyled run.
func PlainSegments(text string) []Segment {
	if text == "" {
		return nil
	}
	return []Segment{{Text: text, Start: 0, End: len([]rune(text))}}
}
