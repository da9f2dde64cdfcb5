package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrDispatcherClosed is returned by Publish after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type registry struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

func (r *registry) Subscribe(eventType EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[eventType] = append(r.listeners[eventType], handler)
}

func (r *registry) handlers(eventType EventType) []EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EventHandler{}, r.listeners[eventType]...)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	registry
}

// NewInMemoryDispatcher creates a synchronous dispatcher. Handler errors are
// joined and returned after every handler ran.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{registry{listeners: make(map[EventType][]EventHandler)}}
}

func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, handler := range d.handlers(event.Type) {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AsyncDispatcher delivers events on worker goroutines. Publish never blocks:
// when the queue is full the event is dropped and logged.
type AsyncDispatcher struct {
	registry
	queue   chan Event
	logger  *zap.Logger
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewAsyncDispatcher starts workers consuming a queue of the given size.
func NewAsyncDispatcher(workers, queueSize int, logger *zap.Logger) *AsyncDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &AsyncDispatcher{
		registry: registry{listeners: make(map[EventType][]EventHandler)},
		queue:    make(chan Event, queueSize),
		logger:   logger,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

func (d *AsyncDispatcher) Publish(_ context.Context, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- event:
	default:
		d.dropped.Add(1)
		d.logger.Warn("event queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
	}
	return nil
}

func (d *AsyncDispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *AsyncDispatcher) deliver(event Event) {
	// Delivery is detached from the request that produced the event.
	ctx := context.Background()
	for _, handler := range d.handlers(event.Type) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.failed.Add(1)
					d.logger.Error("event handler panicked",
						zap.String("event_type", string(event.Type)),
						zap.Any("panic", r))
				}
			}()
			if err := handler(ctx, event); err != nil {
				d.failed.Add(1)
				d.logger.Warn("event handler failed",
					zap.String("event_type", string(event.Type)),
					zap.String("ticket_id", event.TicketID),
					zap.Error(err))
			}
		}()
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (d *AsyncDispatcher) Dropped() int64 { return d.dropped.Load() }

// Failed returns the number of handler invocations that errored.
func (d *AsyncDispatcher) Failed() int64 { return d.failed.Load() }

// Close stops accepting events and waits for queued ones to drain or ctx to
// expire.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
