package adapter

import (
	"context"
	"fmt"
	"time"
)

// DefaultBackoff is the delay before the first retry. Each later retry
// doubles it.
const DefaultBackoff = 500 * time.Millisecond

// RetryConfig controls Retry.
type RetryConfig struct {
	// Retries is the number of attempts after the first.
	Retries int
	// Backoff is the initial delay (DefaultBackoff when zero).
	Backoff time.Duration
	// Permanent reports errors that must not be retried. Nil retries all.
	Permanent func(error) bool
}

// RetryError reports a permanent failure or exhausted retries.
type RetryError struct {
	Attempts  int
	Permanent bool
	Err       error
}

func (e *RetryError) Error() string {
	if e.Permanent {
		return fmt.Sprintf("non-retriable error: %v", e.Err)
	}
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// Retry calls fn until it succeeds, returns a permanent error, or the
// attempts (1 + Retries) are used up. Backoff grows exponentially and is
// interrupted by ctx.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	attempts := 1 + cfg.Retries

	var lastErr error
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context canceled: %w", err)
		}

		// Backoff before retries, not before the first attempt.
		if i > 0 {
			timer := time.NewTimer(backoff << (i - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("context canceled during backoff: %w", ctx.Err())
			case <-timer.C:
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if cfg.Permanent != nil && cfg.Permanent(lastErr) {
			return &RetryError{Attempts: i + 1, Permanent: true, Err: lastErr}
		}
	}
	return &RetryError{Attempts: attempts, Err: lastErr}
}
