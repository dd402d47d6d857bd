package rules

import "github.com/google/uuid"

// IDPrefix marks ids generated for user rules.
const IDPrefix = "pattern-"

// NewID returns a fresh rule id. Ids are never reused.
func NewID() string {
	return IDPrefix + uuid.NewString()
}
