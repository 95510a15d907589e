// Package lock provides named mutual exclusion keyed by video ID.
// One evaluation per video runs at a time system-wide; any backend with
// acquire/release semantics satisfies the Manager interface. A keyed
// in-process mutex covers single-instance deployments, a Redis backend
// covers multi-instance ones.
package lock

import "context"

// Handle represents a held lock. Release is idempotent and safe to call
// from any exit path.
type Handle interface {
	Release()
}

// Manager acquires named exclusive locks.
type Manager interface {
	// Acquire blocks until the lock for key is held or ctx is done.
	// A non-nil error means the lock was NOT acquired; callers decide
	// whether to degrade to non-exclusive execution.
	Acquire(ctx context.Context, key string) (Handle, error)
}

// noopHandle is returned when a caller chooses to proceed without
// exclusivity after an acquisition failure.
type noopHandle struct{}

func (noopHandle) Release() {}

// Noop returns a handle whose Release does nothing.
func Noop() Handle {
	return noopHandle{}
}
