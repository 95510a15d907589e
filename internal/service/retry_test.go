package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestRetryPolicySucceedsAfterTransientFailures verifies transient errors are retried
func TestRetryPolicySucceedsAfterTransientFailures(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Classify:    func(error) bool { return true },
	}

	calls := 0
	err := policy.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt != calls {
			t.Errorf("Attempt number mismatch: got %d, want %d", attempt, calls)
		}
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

// TestRetryPolicyPermanentErrorAbortsImmediately verifies non-transient errors skip retries
func TestRetryPolicyPermanentErrorAbortsImmediately(t *testing.T) {
	permanent := errors.New("permanent")
	policy := RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Classify:    func(err error) bool { return !errors.Is(err, permanent) },
	}

	calls := 0
	err := policy.Do(context.Background(), func(int) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("Expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

// TestRetryPolicyExhaustsBudget verifies the last error surfaces when attempts run out
func TestRetryPolicyExhaustsBudget(t *testing.T) {
	last := errors.New("still failing")
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func(int) error {
		calls++
		return last
	})
	if !errors.Is(err, last) {
		t.Fatalf("Expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

// TestRetryPolicyContextCancellation verifies cancellation stops the backoff wait
func TestRetryPolicyContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Minute}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, func(int) error {
			calls++
			return errors.New("transient")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", calls)
	}
}
