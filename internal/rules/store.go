package rules

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no rule has the requested id.
	ErrNotFound = errors.New("rule not found")
	// ErrInvalidRule is returned when a rule cannot be stored as given.
	ErrInvalidRule = errors.New("invalid rule")
	// ErrBuiltin is returned when removing or moving a built-in rule.
	// Loading always restores built-ins in their default order, so such
	// edits could not be persisted. Built-ins can be disabled instead.
	ErrBuiltin = errors.New("built-in rule")
)

// Store is the in-memory ordered rule list. It is not safe for concurrent
// use; settings.Manager is its only writer and serializes access.
type Store struct {
	rules    List
	defaults List
}

// NewStore returns a store holding a copy of defaults.
func NewStore(defaults List) *Store {
	return &Store{
		rules:    defaults.Clone(),
		defaults: defaults.Clone(),
	}
}

// List returns a copy of the rules in order.
func (s *Store) List() List {
	return s.rules.Clone()
}

// Len returns the number of rules.
func (s *Store) Len() int {
	return len(s.rules)
}

// Defaults returns a copy of the defaults the store normalizes against.
func (s *Store) Defaults() List {
	return s.defaults.Clone()
}

// Get returns the rule with id.
func (s *Store) Get(id string) (PatternRule, error) {
	i := s.rules.Index(id)
	if i < 0 {
		return PatternRule{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return s.rules[i], nil
}

// Add appends rule. Blank name, class and color are filled from the scaffold;
// an empty or colliding id is replaced with a fresh one. The stored rule is
// returned.
func (s *Store) Add(rule PatternRule) (PatternRule, error) {
	if !validCaptureGroup(rule.CaptureGroup) {
		return PatternRule{}, fmt.Errorf("add: capture group %q: %w", rule.CaptureGroup, ErrInvalidRule)
	}
	if rule.ID == "" || s.rules.Index(rule.ID) >= 0 {
		rule.ID = NewID()
	}
	fillBlanks(&rule, Scaffold(len(s.rules)+1))
	s.rules = append(s.rules, rule)
	return rule, nil
}

// Update replaces the rule with the same id. Blank name, class and color keep
// their current values.
func (s *Store) Update(rule PatternRule) error {
	if rule.ID == "" {
		return fmt.Errorf("update: empty id: %w", ErrInvalidRule)
	}
	i := s.rules.Index(rule.ID)
	if i < 0 {
		return fmt.Errorf("update %q: %w", rule.ID, ErrNotFound)
	}
	if !validCaptureGroup(rule.CaptureGroup) {
		return fmt.Errorf("update %q: capture group %q: %w", rule.ID, rule.CaptureGroup, ErrInvalidRule)
	}
	fillBlanks(&rule, s.rules[i])
	s.rules[i] = rule
	return nil
}

// Remove deletes the user rule with id.
func (s *Store) Remove(id string) error {
	i := s.rules.Index(id)
	if i < 0 {
		return fmt.Errorf("remove %q: %w", id, ErrNotFound)
	}
	if s.IsBuiltin(id) {
		return fmt.Errorf("remove %q: %w", id, ErrBuiltin)
	}
	s.rules = append(s.rules[:i:i], s.rules[i+1:]...)
	return nil
}

// Move places the user rule with id at index. The index is clamped to the
// user section, which follows the built-ins.
func (s *Store) Move(id string, index int) error {
	from := s.rules.Index(id)
	if from < 0 {
		return fmt.Errorf("move %q: %w", id, ErrNotFound)
	}
	if s.IsBuiltin(id) {
		return fmt.Errorf("move %q: %w", id, ErrBuiltin)
	}
	index = max(s.builtinCount(), min(index, len(s.rules)-1))
	if index == from {
		return nil
	}
	r := s.rules[from]
	rest := append(s.rules[:from:from], s.rules[from+1:]...)
	out := make(List, 0, len(s.rules))
	out = append(out, rest[:index]...)
	out = append(out, r)
	out = append(out, rest[index:]...)
	s.rules = out
	return nil
}

// SetEnabled toggles one rule without removing it.
func (s *Store) SetEnabled(id string, enabled bool) error {
	i := s.rules.Index(id)
	if i < 0 {
		return fmt.Errorf("set enabled %q: %w", id, ErrNotFound)
	}
	s.rules[i].Enabled = enabled
	return nil
}

// Replace swaps in a whole list after normalizing it against the defaults.
func (s *Store) Replace(l List) []Issue {
	if l == nil {
		l = List{}
	}
	normalized, issues := NormalizeAndMerge(l, s.defaults)
	s.rules = normalized
	return issues
}

// IsBuiltin reports whether id belongs to one of the default rules.
func (s *Store) IsBuiltin(id string) bool {
	return s.defaults.Index(id) >= 0
}

func (s *Store) builtinCount() int {
	n := 0
	for _, r := range s.rules {
		if s.IsBuiltin(r.ID) {
			n++
		}
	}
	return n
}

// Reset restores the defaults.
func (s *Store) Reset() {
	s.rules = s.defaults.Clone()
}

func fillBlanks(r *PatternRule, from PatternRule) {
	if strings.TrimSpace(r.Name) == "" {
		r.Name = from.Name
	}
	if strings.TrimSpace(r.Class) == "" {
		r.Class = from.Class
	}
	if strings.TrimSpace(r.Color) == "" {
		r.Color = from.Color
	}
}
