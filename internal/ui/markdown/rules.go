package markdown

import (
	"fmt"
	"strings"

	"github.com/zjrosen/glint/internal/highlight"
	"github.com/zjrosen/glint/internal/rules"
)

// RulesDocument builds a markdown listing of list in evaluation order.
// Rules that failed validation are flagged with their diagnostic.
func RulesDocument(list rules.List, builtin func(id string) bool, diags []highlight.Diagnostic) string {
	failed := make(map[string]string, len(diags))
	for _, d := range diags {
		failed[d.RuleID] = d.Err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Rules (%d)\n\n", len(list))
	b.WriteString("Later rules win where matches overlap.\n\n")
	b.WriteString("| # | On | ID | Name | Regex | Flags | Group | Class | Color |\n")
	b.WriteString("|---|----|----|------|-------|-------|-------|-------|-------|\n")
	for i, r := range list {
		on := "yes"
		if !r.Enabled {
			on = "no"
		}
		id := cell(r.ID)
		if builtin != nil && builtin(r.ID) {
			id += " *"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			i+1, on, id, cell(r.Name), code(r.Regex), cell(r.Flags),
			cell(r.CaptureGroup), cell(r.Class), cell(r.Color))
	}
	b.WriteString("\n\\* built-in\n")

	if len(failed) > 0 {
		b.WriteString("\n## Problems\n\n")
		for _, r := range list {
			if msg, ok := failed[r.ID]; ok {
				fmt.Fprintf(&b, "- **%s**: %s\n", cell(r.ID), cell(msg))
			}
		}
	}
	return b.String()
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func code(s string) string {
	if s == "" {
		return ""
	}
	fence := "`"
	if strings.Contains(s, "`") {
		fence = "``"
	}
	return fence + " " + cell(s) + " " + fence
}
