package lock

import (
	"context"
	"sync"
)

// KeyedMutex is an in-process Manager backed by one mutex per key.
// Entries are reference-counted and removed once the last waiter is
// gone, so the map does not grow with the number of distinct videos.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{} // capacity 1; holding the token = holding the lock
	refs int
}

// NewKeyedMutex creates an in-process keyed lock manager.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyedEntry)}
}

// Acquire blocks until the lock for key is held or ctx is done.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: lock name, typically the video ID.
// Returns:
//   - Handle: release handle; Release is idempotent.
//   - error: ctx.Err() if the context ended before acquisition.
func (m *KeyedMutex) Acquire(ctx context.Context, key string) (Handle, error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		entry = &keyedEntry{ch: make(chan struct{}, 1)}
		m.entries[key] = entry
	}
	entry.refs++
	m.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
		return &keyedHandle{m: m, key: key, entry: entry}, nil
	case <-ctx.Done():
		m.decref(key, entry)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) decref(key string, entry *keyedEntry) {
	m.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}

type keyedHandle struct {
	m     *KeyedMutex
	key   string
	entry *keyedEntry
	once  sync.Once
}

// Release releases the lock. Safe to call more than once.
func (h *keyedHandle) Release() {
	h.once.Do(func() {
		<-h.entry.ch
		h.m.decref(h.key, h.entry)
	})
}
