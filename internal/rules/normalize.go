package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Issue describes one repair made while normalizing loaded rules.
type Issue struct {
	// Index is the position of the offending entry in the loaded list, or -1
	// when the issue concerns the list as a whole.
	Index  int
	ID     string
	Field  string
	Reason string
}

func (i Issue) String() string {
	var b strings.Builder
	if i.Index >= 0 {
		fmt.Fprintf(&b, "entry %d", i.Index)
	} else {
		b.WriteString("customPatterns")
	}
	if i.ID != "" {
		fmt.Fprintf(&b, " (%s)", i.ID)
	}
	if i.Field != "" {
		fmt.Fprintf(&b, " field %s", i.Field)
	}
	b.WriteString(": ")
	b.WriteString(i.Reason)
	return b.String()
}

type fieldKind int

const (
	anyString fieldKind = iota
	nonBlankString
	boolean
)

// ruleFields lists the overlayable fields in persisted key order.
var ruleFields = []struct {
	key  string
	kind fieldKind
	set  func(*PatternRule, any)
}{
	{"name", nonBlankString, func(r *PatternRule, v any) { r.Name = v.(string) }},
	{"enabled", boolean, func(r *PatternRule, v any) { r.Enabled = v.(bool) }},
	{"regex", anyString, func(r *PatternRule, v any) { r.Regex = v.(string) }},
	{"flags", anyString, func(r *PatternRule, v any) { r.Flags = v.(string) }},
	{"cls", nonBlankString, func(r *PatternRule, v any) { r.Class = v.(string) }},
	{"color", nonBlankString, func(r *PatternRule, v any) { r.Color = v.(string) }},
	{"captureGroup", anyString, func(r *PatternRule, v any) { r.CaptureGroup = v.(string) }},
}

func accepts(kind fieldKind, v any) bool {
	switch kind {
	case boolean:
		_, ok := v.(bool)
		return ok
	case nonBlankString:
		s, ok := v.(string)
		return ok && strings.TrimSpace(s) != ""
	default:
		_, ok := v.(string)
		return ok
	}
}

// NormalizeAndMerge repairs a loaded rule list against defaults.
//
// loaded is the decoded customPatterns value: nil, a []any of JSON objects
// (map[string]any), or an already typed List. Default-derived rules come
// first in default order, each overlaid field by field with the first loaded
// entry carrying its id. Remaining loaded entries follow in their original
// order, completed from the scaffold. The result is always a complete list
// with unique ids; every repair is reported as an Issue.
func NormalizeAndMerge(loaded any, defaults List) (List, []Issue) {
	if loaded == nil {
		return defaults.Clone(), nil
	}

	var issues []Issue
	entries, ok := asEntries(loaded)
	if !ok {
		issues = append(issues, Issue{Index: -1, Reason: fmt.Sprintf("expected a list, got %T; using defaults", loaded)})
	}

	isDefault := make(map[string]bool, len(defaults))
	for _, d := range defaults {
		isDefault[d.ID] = true
	}

	type extra struct {
		index int
		obj   map[string]any
	}
	overlays := make(map[string]extra)
	var extras []extra
	seen := make(map[string]bool, len(entries))

	for i, e := range entries {
		obj, ok := e.(map[string]any)
		if !ok || len(obj) == 0 {
			issues = append(issues, Issue{Index: i, Reason: "not a rule object; dropped"})
			continue
		}
		id, _ := obj["id"].(string)
		if id != "" {
			if seen[id] {
				issues = append(issues, Issue{Index: i, ID: id, Reason: "duplicate id; dropped"})
				continue
			}
			seen[id] = true
		}
		if isDefault[id] {
			overlays[id] = extra{i, obj}
			continue
		}
		extras = append(extras, extra{i, obj})
	}

	out := make(List, 0, len(defaults)+len(extras))
	for _, d := range defaults {
		r := d
		if o, ok := overlays[d.ID]; ok {
			issues = overlay(&r, o.index, o.obj, issues, false)
		}
		out = append(out, r)
	}

	for _, e := range extras {
		r := Scaffold(len(out) + 1)
		id, isString := e.obj["id"].(string)
		if !isString || id == "" {
			id = NewID()
			issues = append(issues, Issue{Index: e.index, ID: id, Field: "id", Reason: "missing or not a string; assigned a new id"})
		}
		r.ID = id
		issues = overlay(&r, e.index, e.obj, issues, true)
		out = append(out, r)
	}

	return out, issues
}

// overlay copies the valid fields of obj onto r. Invalid fields are reported.
// Missing fields are only reported for user rules, where they come from the
// scaffold.
func overlay(r *PatternRule, index int, obj map[string]any, issues []Issue, reportMissing bool) []Issue {
	var missing []string
	for _, f := range ruleFields {
		v, present := obj[f.key]
		if !present || v == nil {
			if reportMissing {
				missing = append(missing, f.key)
			}
			continue
		}
		if !accepts(f.kind, v) {
			issues = append(issues, Issue{Index: index, ID: r.ID, Field: f.key, Reason: fmt.Sprintf("invalid value %v (%T); kept %q", v, v, currentValue(r, f.key))})
			continue
		}
		f.set(r, v)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		issues = append(issues, Issue{Index: index, ID: r.ID, Reason: "filled missing fields: " + strings.Join(missing, ", ")})
	}
	return issues
}

func currentValue(r *PatternRule, key string) string {
	switch key {
	case "name":
		return r.Name
	case "enabled":
		return fmt.Sprint(r.Enabled)
	case "regex":
		return r.Regex
	case "flags":
		return r.Flags
	case "cls":
		return r.Class
	case "color":
		return r.Color
	default:
		return r.CaptureGroup
	}
}

func asEntries(loaded any) ([]any, bool) {
	switch v := loaded.(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	case List:
		return v.entries(), true
	case []PatternRule:
		return List(v).entries(), true
	default:
		return nil, false
	}
}

// Map returns the rule as a persisted JSON object.
func (r PatternRule) Map() map[string]any {
	return map[string]any{
		"id":           r.ID,
		"name":         r.Name,
		"enabled":      r.Enabled,
		"regex":        r.Regex,
		"flags":        r.Flags,
		"cls":          r.Class,
		"color":        r.Color,
		"captureGroup": r.CaptureGroup,
	}
}

func (l List) entries() []any {
	out := make([]any, len(l))
	for i, r := range l {
		out[i] = r.Map()
	}
	return out
}
