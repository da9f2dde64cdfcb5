package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestAsyncDispatcherDelivers(t *testing.T) {
	d := NewAsyncDispatcher(2, 16, zap.NewNop())
	var (
		mu  sync.Mutex
		got []string
	)
	d.Subscribe(EventTicketStatusChanged, func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error {
		panic("handler bug")
	})

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketStatusChanged, TicketID: id}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	assert.ElementsMatch(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, int64(3), d.Failed())
	assert.ErrorIs(t, d.Publish(context.Background(), Event{}), ErrDispatcherClosed)
}

func TestAsyncDispatcherDropsWhenFull(t *testing.T) {
	d := NewAsyncDispatcher(1, 1, zap.NewNop())
	block := make(chan struct{})
	var handled atomic.Int64
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		<-block
		handled.Add(1)
		return nil
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	}
	close(block)
	require.NoError(t, d.Close(context.Background()))

	assert.Positive(t, d.Dropped())
	assert.Equal(t, int64(10), handled.Load()+d.Dropped())
}
