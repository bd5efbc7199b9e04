package retry

import (
	"context"
	"time"
)

// Policy describes a bounded retry loop: how many attempts, how long to
// wait between them, and which errors are worth retrying at all. Sleep is
// injectable so the backoff schedule can be unit-tested without delays.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(error) bool
	Sleep       func(time.Duration)
}

// ExpBackoff returns base * 2^attempt, capped. Attempt is 0-based.
func ExpBackoff(base, cap time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		wait := base << uint(attempt)
		if wait > cap || wait <= 0 {
			return cap
		}
		return wait
	}
}

// Do runs fn until it succeeds, the error is not retryable, attempts run
// out, or the context is cancelled. The last error is returned.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		if p.Backoff != nil {
			sleep(p.Backoff(attempt))
		}
	}
	return err
}
