package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/domain/event"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

func testEvent(eventType event.Type) *event.Event {
	return event.New(eventType, workflow.EntityRfq, "rfq-1", []string{"buyer-co"}, map[string]interface{}{
		"from": "draft",
		"to":   "bidding_open",
	})
}

func TestDispatchRoutesByType(t *testing.T) {
	d := New(zap.NewNop())

	var published, awarded int
	d.Subscribe(event.TypeRfqPublished, "counter", func(ctx context.Context, evt *event.Event) error {
		published++
		return nil
	})
	d.Subscribe(event.TypeRfqAwarded, "counter", func(ctx context.Context, evt *event.Event) error {
		awarded++
		return nil
	})

	err := d.Dispatch(context.Background(), testEvent(event.TypeRfqPublished))
	assert.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Equal(t, 0, awarded)
}

func TestDispatchMultipleHandlers(t *testing.T) {
	d := New(zap.NewNop())

	var order []string
	for _, name := range []string{"first", "second"} {
		name := name
		d.Subscribe(event.TypeBidSubmitted, name, func(ctx context.Context, evt *event.Event) error {
			order = append(order, name)
			return nil
		})
	}

	err := d.Dispatch(context.Background(), testEvent(event.TypeBidSubmitted))
	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDispatchReturnsHandlerError(t *testing.T) {
	d := New(zap.NewNop())

	handlerErr := errors.New("delivery failed")
	var secondCalled bool
	d.Subscribe(event.TypeRfqPublished, "failing", func(ctx context.Context, evt *event.Event) error {
		return handlerErr
	})
	d.Subscribe(event.TypeRfqPublished, "after", func(ctx context.Context, evt *event.Event) error {
		secondCalled = true
		return nil
	})

	err := d.Dispatch(context.Background(), testEvent(event.TypeRfqPublished))
	assert.ErrorIs(t, err, handlerErr)
	assert.Contains(t, err.Error(), "failing")
	assert.False(t, secondCalled)
}

func TestDispatchRecoversPanic(t *testing.T) {
	d := New(zap.NewNop())

	d.Subscribe(event.TypeRfqPublished, "panicking", func(ctx context.Context, evt *event.Event) error {
		panic("boom")
	})

	err := d.Dispatch(context.Background(), testEvent(event.TypeRfqPublished))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
}

func TestDispatchAsyncRunsAllHandlers(t *testing.T) {
	d := New(zap.NewNop())

	var calls atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)
	for _, name := range []string{"a", "b", "c"} {
		d.Subscribe(event.TypeOrderSent, name, func(ctx context.Context, evt *event.Event) error {
			calls.Add(1)
			wg.Done()
			return nil
		})
	}

	d.DispatchAsync(context.Background(), testEvent(event.TypeOrderSent))
	wg.Wait()
	assert.Equal(t, int32(3), calls.Load())
}

func TestCloseWaitsForAsyncHandlers(t *testing.T) {
	d := New(zap.NewNop())

	release := make(chan struct{})
	var finished atomic.Bool
	d.Subscribe(event.TypeRfqPublished, "slow", func(ctx context.Context, evt *event.Event) error {
		<-release
		finished.Store(true)
		return nil
	})

	d.DispatchAsync(context.Background(), testEvent(event.TypeRfqPublished))

	closed := make(chan struct{})
	go func() {
		assert.NoError(t, d.Close())
		close(closed)
	}()

	close(release)
	<-closed
	assert.True(t, finished.Load())
}

func TestDispatchAfterClose(t *testing.T) {
	d := New(zap.NewNop())

	var called bool
	d.Subscribe(event.TypeRfqPublished, "handler", func(ctx context.Context, evt *event.Event) error {
		called = true
		return nil
	})

	assert.NoError(t, d.Close())
	assert.Error(t, d.Dispatch(context.Background(), testEvent(event.TypeRfqPublished)))

	d.DispatchAsync(context.Background(), testEvent(event.TypeRfqPublished))
	assert.False(t, called)

	assert.Error(t, d.Close())
}
