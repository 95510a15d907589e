package service

import (
	"context"
	"time"
)

// RetryPolicy retries an operation with exponential backoff. Errors the
// classifier marks non-transient abort immediately; transient errors
// are retried until the attempt budget is spent.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Classify reports whether an error is transient (worth retrying).
	// A nil Classify treats every error as transient.
	Classify func(error) bool
}

// Do runs op under the policy.
// Parameters:
//   - ctx: context for cancellation; checked between attempts.
//   - op: operation to run; receives the 1-based attempt number.
// Returns:
//   - error: nil on success, the last error once attempts are spent, or
//     the first permanent error.
func (p RetryPolicy) Do(ctx context.Context, op func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.BaseDelay
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op(attempt)
		if err == nil {
			return nil
		}
		if p.Classify != nil && !p.Classify(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}
