package resilience

import (
	"context"
	"time"
)

// RetryPolicy retries transient failures with a fixed backoff. MaxRetries
// counts attempts after the first, so MaxRetries=2 allows three calls total.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

func NewRetryPolicy(maxRetries int, backoff time.Duration) RetryPolicy {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	return RetryPolicy{MaxRetries: maxRetries, Backoff: backoff}
}

// Do runs fn until it succeeds or the budget is spent. Backoff waits honor
// ctx, so a canceled caller stops retrying immediately with ctx.Err().
func (r RetryPolicy) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt >= r.MaxRetries {
			return lastErr
		}
		timer := time.NewTimer(r.Backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
