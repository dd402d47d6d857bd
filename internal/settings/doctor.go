package settings

import (
	"bytes"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/glint/internal/json"
	"github.com/zjrosen/glint/internal/rules"
)

// Report describes how a stored blob differs from its repaired form.
type Report struct {
	Issues []rules.Issue
	// Repaired is the blob Load would produce, encoded.
	Repaired []byte
	// Diff is a line diff from the stored blob to Repaired, with "-", "+"
	// and " " prefixes. Empty when nothing changes.
	Diff string
}

// Clean reports whether the stored blob needs no repair.
func (r Report) Clean() bool {
	return len(r.Issues) == 0 && r.Diff == ""
}

// Doctor normalizes raw against defaults and reports the changes.
func Doctor(raw []byte, defaults rules.List) (Report, error) {
	s, issues := Decode(raw, defaults)
	repaired, err := Encode(s)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Issues:   issues,
		Repaired: repaired,
		Diff:     lineDiff(canonical(raw), canonical(repaired)),
	}, nil
}

// canonical re-indents valid JSON with sorted keys so that key order alone
// never shows up in a diff.
func canonical(data []byte) string {
	if !json.Valid(data) {
		return string(data)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}

func lineDiff(before, after string) string {
	before = strings.TrimRight(before, "\n")
	after = strings.TrimRight(after, "\n")
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before+"\n", after+"\n")
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}
	return out.String()
}
