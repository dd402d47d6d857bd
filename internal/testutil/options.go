package testutil

import "github.com/zjrosen/glint/internal/rules"

// RuleOption configures a rule added with Builder.WithRule.
type RuleOption func(*rules.PatternRule)

// WithRegex sets the rule pattern.
func WithRegex(regex string) RuleOption {
	return func(r *rules.PatternRule) { r.Regex = regex }
}

// WithFlags sets the rule flags.
func WithFlags(flags string) RuleOption {
	return func(r *rules.PatternRule) { r.Flags = flags }
}

// WithName sets the display name.
func WithName(name string) RuleOption {
	return func(r *rules.PatternRule) { r.Name = name }
}

// WithClass sets the style class.
func WithClass(class string) RuleOption {
	return func(r *rules.PatternRule) { r.Class = class }
}

// WithColor sets the rule color.
func WithColor(color string) RuleOption {
	return func(r *rules.PatternRule) { r.Color = color }
}

// WithGroup sets the capture group.
func WithGroup(group string) RuleOption {
	return func(r *rules.PatternRule) { r.CaptureGroup = group }
}

// Disabled turns the rule off.
func Disabled() RuleOption {
	return func(r *rules.PatternRule) { r.Enabled = false }
}

// defaultRule matches its own id literally.
func defaultRule(id string) rules.PatternRule {
	return rules.PatternRule{
		ID:      id,
		Name:    id,
		Enabled: true,
		Regex:   id,
		Class:   "custom-" + id,
		Color:   "#FF8800",
	}
}
