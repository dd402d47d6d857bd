package preview

import (
	"context"
	"sync/atomic"

	"github.com/zjrosen/glint/internal/pubsub"
	"github.com/zjrosen/glint/internal/render"
)

// Surface hands coordinator frames to the preview program. Only the newest
// frame is kept if the program falls behind.
type Surface struct {
	broker *pubsub.Broker[render.Frame]
	closed atomic.Bool
}

// NewSurface returns an open Surface.
func NewSurface() *Surface {
	return &Surface{
		broker: pubsub.NewBroker[render.Frame](pubsub.WithBuffer(1), pubsub.WithDropOldest()),
	}
}

// Update queues f for the program.
func (s *Surface) Update(ctx context.Context, f render.Frame) error {
	if s.closed.Load() {
		return render.ErrSurfaceClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.broker.Publish(pubsub.FrameReady, f)
	return nil
}

// Subscribe implements pubsub.Subscriber for the program's listener.
func (s *Surface) Subscribe(ctx context.Context) <-chan pubsub.Event[render.Frame] {
	return s.broker.Subscribe(ctx)
}

// Close ends every subscription.
func (s *Surface) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.broker.Close()
	}
	return nil
}
