// Package settings persists glint's settings blob and owns the live rule set.
//
// The blob is a JSON object stored under Key in a kvstore.Store:
//
//	{"enableGlobalSyntaxHighlighting": true,
//	 "defaultTextColor": "#cccccc",
//	 "customPatterns": [ ...rules... ]}
//
// Decoding never fails. Missing or mistyped fields are repaired from the
// defaults and reported as rules.Issue values.
package settings

import (
	"bytes"
	"fmt"

	"github.com/zjrosen/glint/internal/json"
	"github.com/zjrosen/glint/internal/render"
	"github.com/zjrosen/glint/internal/rules"
)

// Key is the kvstore key the blob is stored under.
const Key = "settings"

// Settings is the persisted blob.
type Settings struct {
	EnableGlobalSyntaxHighlighting bool       `json:"enableGlobalSyntaxHighlighting"`
	DefaultTextColor               string     `json:"defaultTextColor,omitempty"`
	CustomPatterns                 rules.List `json:"customPatterns"`
}

// Default returns highlighting on, the terminal's text color and a copy of
// defaults.
func Default(defaults rules.List) Settings {
	return Settings{
		EnableGlobalSyntaxHighlighting: true,
		CustomPatterns:                 defaults.Clone(),
	}
}

// Decode parses raw and repairs it against defaults. Empty input yields the
// defaults without issues.
func Decode(raw []byte, defaults rules.List) (Settings, []rules.Issue) {
	s := Default(defaults)
	if len(bytes.TrimSpace(raw)) == 0 {
		return s, nil
	}

	var blob map[string]any
	if err := json.Unmarshal(raw, &blob); err != nil || blob == nil {
		reason := "settings blob is not a JSON object; using defaults"
		if err != nil {
			reason = fmt.Sprintf("settings blob is not valid JSON (%v); using defaults", err)
		}
		return s, []rules.Issue{{Index: -1, Reason: reason}}
	}

	var issues []rules.Issue
	if v, ok := blob["enableGlobalSyntaxHighlighting"]; ok {
		if b, isBool := v.(bool); isBool {
			s.EnableGlobalSyntaxHighlighting = b
		} else {
			issues = append(issues, rules.Issue{Index: -1, Field: "enableGlobalSyntaxHighlighting", Reason: "not a boolean; kept default"})
		}
	}
	if v, ok := blob["defaultTextColor"]; ok {
		if c, isString := v.(string); isString && ValidTextColor(c) {
			s.DefaultTextColor = c
		} else {
			issues = append(issues, rules.Issue{Index: -1, Field: "defaultTextColor", Reason: "not a color; kept default"})
		}
	}

	// A missing customPatterns key is the same as no saved rules.
	patterns, patternIssues := rules.NormalizeAndMerge(blob["customPatterns"], defaults)
	s.CustomPatterns = patterns
	issues = append(issues, patternIssues...)
	return s, issues
}

// Encode serializes s. Rules are written with every field present.
func Encode(s Settings) ([]byte, error) {
	if s.CustomPatterns == nil {
		s.CustomPatterns = rules.List{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	return data, nil
}

// ValidTextColor accepts "", a hex color or a var(--name) reference.
func ValidTextColor(c string) bool {
	if c == "" || render.IsHexColor(c) {
		return true
	}
	_, ok := render.CSSVar(c)
	return ok
}
