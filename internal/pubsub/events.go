// Package pubsub provides the generic publish/subscribe broker that carries
// document changes and rule-set snapshots to the coordinator and surfaces.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// DocumentEdited is published when the active document's text changes.
	DocumentEdited EventType = "document.edited"
	// DocumentSwitched is published when a different document becomes active.
	DocumentSwitched EventType = "document.switched"
	// RulesSaved is published after a rule-set mutation was persisted.
	RulesSaved EventType = "rules.saved"
	// RulesReloaded is published when settings were re-read from storage
	// and differ from the previous snapshot.
	RulesReloaded EventType = "rules.reloaded"
	// FrameReady is published by surfaces that hand frames to a UI loop.
	FrameReady EventType = "frame.ready"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
