package lock

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestKeyedMutexMutualExclusion(t *testing.T) {
	m := NewKeyedMutex()

	var mu sync.Mutex
	inCritical := 0
	maxInCritical := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := m.Acquire(context.Background(), "video-1")
			if err != nil {
				t.Errorf("unexpected acquire error: %v", err)
				return
			}
			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
			h.Release()
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Errorf("expected at most 1 holder at a time, observed %d", maxInCritical)
	}
}

func TestKeyedMutexDifferentKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex()

	h1, err := m.Acquire(context.Background(), "video-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer h1.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	h2, err := m.Acquire(ctx, "video-2")
	if err != nil {
		t.Fatalf("acquire on a different key should not block: %v", err)
	}
	h2.Release()
}

func TestKeyedMutexReleaseIdempotent(t *testing.T) {
	m := NewKeyedMutex()

	h, err := m.Acquire(context.Background(), "video-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h.Release()
	h.Release() // second release must not panic or free someone else's hold

	// Lock must be acquirable again after release.
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	h2, err := m.Acquire(ctx, "video-1")
	if err != nil {
		t.Fatalf("lock not reacquirable after release: %v", err)
	}
	h2.Release()
}

func TestKeyedMutexAcquireCancelled(t *testing.T) {
	m := NewKeyedMutex()

	h, err := m.Acquire(context.Background(), "video-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := m.Acquire(ctx, "video-1"); err == nil {
		t.Fatal("expected context error while lock is held")
	}

	h.Release()

	// The cancelled waiter must not have consumed the token.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel2()
	h2, err := m.Acquire(ctx2, "video-1")
	if err != nil {
		t.Fatalf("lock not reacquirable after cancelled waiter: %v", err)
	}
	h2.Release()
}
