// Package lock provides per-ticket exclusive locks.
package lock

import (
	"context"
	"errors"
)

// ErrBusy is returned when a lock could not be acquired before the wait
// deadline.
var ErrBusy = errors.New("lock busy")

// Locker acquires an exclusive lock on key. The returned release func must
// be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// TicketKey scopes a ticket ID to the lock namespace.
func TicketKey(ticketID string) string {
	return "ticket-lock:" + ticketID
}
