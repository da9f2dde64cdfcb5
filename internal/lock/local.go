package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Local is an in-process keyed mutex. Entries are dropped once no goroutine
// holds or waits for them.
type Local struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	wait    time.Duration
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// NewLocal returns a keyed lock. wait bounds how long Acquire blocks; zero
// means until ctx is done.
func NewLocal(wait time.Duration) *Local {
	return &Local{entries: make(map[string]*localEntry), wait: wait}
}

func (l *Local) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, entry)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrBusy
		}
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.unref(key, entry)
		})
	}, nil
}

func (l *Local) unref(key string, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
