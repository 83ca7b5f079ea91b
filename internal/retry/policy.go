package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy describes a retry loop: how many attempts to make, how long to
// wait between them, and which errors are worth another attempt.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Delay returns the wait before the next attempt. The argument is the
	// zero-based index of the attempt that just failed.
	Delay func(attempt int) time.Duration
	// Retryable reports whether the error may succeed on a later attempt.
	// A nil predicate retries every error.
	Retryable func(error) bool
	// Sleep performs the inter-attempt wait. Tests inject a recording
	// implementation; the default honours context cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Fixed returns a constant backoff schedule.
func Fixed(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// Exponential returns a base×2^attempt backoff schedule.
func Exponential(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt < 0 {
			attempt = 0
		}
		if attempt > 30 {
			attempt = 30
		}
		return base * time.Duration(1<<uint(attempt))
	}
}

// Do runs op under the policy and returns its last result. The final error
// from an exhausted loop is returned unwrapped so callers can classify it.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}
		var delay time.Duration
		if p.Delay != nil {
			delay = p.Delay(attempt)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	if lastErr == nil {
		lastErr = errors.New("retry: no attempts executed")
	}
	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
