package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(time.Second):
		require.FailNow(t, "timeout waiting for event")
	}
	return Event[T]{}
}

func TestBroker_Subscribe(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	broker.Publish(DocumentEdited, "let x = 1;")

	event := recv(t, ch)
	require.Equal(t, "let x = 1;", event.Payload)
	require.Equal(t, DocumentEdited, event.Type)
	require.False(t, event.Timestamp.IsZero())
}

func TestBroker_MultipleSubscribers(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx := context.Background()
	subs := []<-chan Event[int]{
		broker.Subscribe(ctx),
		broker.Subscribe(ctx),
		broker.Subscribe(ctx),
	}
	require.Equal(t, 3, broker.SubscriberCount())

	broker.Publish(RulesSaved, 42)

	for i, ch := range subs {
		event := recv(t, ch)
		require.Equal(t, 42, event.Payload, "subscriber %d", i)
		require.Equal(t, RulesSaved, event.Type, "subscriber %d", i)
	}
}

func TestBroker_ContextCancellation(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 0 },
		time.Second, 5*time.Millisecond)

	_, ok := <-ch
	require.False(t, ok, "channel should be closed")
}

func TestBroker_DropNewestByDefault(t *testing.T) {
	broker := NewBroker[int](WithBuffer(1))
	defer broker.Close()

	ch := broker.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		broker.Publish(DocumentEdited, 1)
		broker.Publish(DocumentEdited, 2)
		broker.Publish(DocumentEdited, 3)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "Publish blocked")
	}

	require.Equal(t, 1, recv(t, ch).Payload)
}

func TestBroker_DropOldestKeepsLatest(t *testing.T) {
	broker := NewBroker[int](WithBuffer(1), WithDropOldest())
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	for i := 1; i <= 5; i++ {
		broker.Publish(DocumentEdited, i)
	}

	require.Equal(t, 5, recv(t, ch).Payload)
	select {
	case event := <-ch:
		require.Failf(t, "unexpected event", "%v", event.Payload)
	default:
	}
}

func TestBroker_WithBufferClampsToOne(t *testing.T) {
	broker := NewBroker[int](WithBuffer(0))
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	broker.Publish(RulesSaved, 7)
	require.Equal(t, 7, recv(t, ch).Payload)
}

func TestBroker_Close(t *testing.T) {
	broker := NewBroker[string]()
	ctx := context.Background()

	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx)
	require.Equal(t, 2, broker.SubscriberCount())

	broker.Close()

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	require.False(t, ok1)
	require.False(t, ok2)
	require.Equal(t, 0, broker.SubscriberCount())

	ch3 := broker.Subscribe(ctx)
	_, ok3 := <-ch3
	require.False(t, ok3, "subscribe after close returns a closed channel")

	require.NotPanics(t, func() { broker.Publish(RulesSaved, "late") })
	require.NotPanics(t, broker.Close)
}
