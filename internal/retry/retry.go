package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy handles retry logic with exponential backoff
type Policy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// NewPolicy creates a new retry policy. maxAttempts <= 0 means one attempt.
func NewPolicy(maxAttempts int, initialDelay, maxDelay time.Duration) *Policy {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	return &Policy{
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
	}
}

// Delay returns the wait before retry number attempt (1-based):
// initialDelay grown by 1.5x per attempt, capped at maxDelay
func (r *Policy) Delay(attempt int) time.Duration {
	delay := r.initialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * 1.5)
		if delay >= r.maxDelay {
			return r.maxDelay
		}
	}
	if delay > r.maxDelay {
		return r.maxDelay
	}
	return delay
}

// Execute runs fn until it succeeds, attempts run out, or ctx is done
func (r *Policy) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// Don't sleep after last attempt
		if attempt == r.maxAttempts {
			break
		}
		if err := Sleep(ctx, r.Delay(attempt)); err != nil {
			return fmt.Errorf("gave up after %d attempts: %w", attempt, lastErr)
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", r.maxAttempts, lastErr)
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
