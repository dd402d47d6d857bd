package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 64

// Option configures a Broker.
type Option func(*options)

type options struct {
	bufferSize int
	dropOldest bool
}

// WithBuffer sets the per-subscriber channel capacity. Values below one are
// raised to one.
func WithBuffer(size int) Option {
	return func(o *options) {
		if size < 1 {
			size = 1
		}
		o.bufferSize = size
	}
}

// WithDropOldest makes a full subscriber lose its oldest pending event
// instead of the one being published. With WithBuffer(1) a subscriber only
// ever sees the most recent value.
func WithDropOldest() Option {
	return func(o *options) { o.dropOldest = true }
}

// Broker is a generic pub/sub event broker. Publish never blocks.
type Broker[T any] struct {
	subs map[chan Event[T]]struct{}
	mu   sync.RWMutex
	done chan struct{}
	opts options
	now  func() time.Time
}

// NewBroker creates a new broker. Without options each subscriber gets a
// 64-event buffer and newest events are dropped when it is full.
func NewBroker[T any](opts ...Option) *Broker[T] {
	o := options{bufferSize: defaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Broker[T]{
		subs: make(map[chan Event[T]]struct{}),
		done: make(chan struct{}),
		opts: o,
		now:  time.Now,
	}
}

// Subscribe creates a new subscription channel.
// The channel is closed when ctx is cancelled or the broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], b.opts.bufferSize)
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return
		default:
		}

		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish sends an event to all subscribers.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: b.now(),
	}

	for sub := range b.subs {
		b.deliver(sub, event)
	}
}

func (b *Broker[T]) deliver(sub chan Event[T], event Event[T]) {
	select {
	case sub <- event:
		return
	default:
	}
	if !b.opts.dropOldest {
		return
	}
	// Concurrent publishers may refill the slot between the two selects;
	// the retry stays non-blocking either way.
	select {
	case <-sub:
	default:
	}
	select {
	case sub <- event:
	default:
	}
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
