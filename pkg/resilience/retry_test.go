package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoRetriesUntilSuccess(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}
	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoReturnsLastErrorWhenBudgetSpent(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 1, Backoff: time.Millisecond}
	sentinel := errors.New("still down")
	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want %v", err, sentinel)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDoStopsOnCanceledContext(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, Backoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, func() error {
			calls++
			return errors.New("transient")
		})
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do kept backing off after cancellation")
	}
	if calls > 1 {
		t.Errorf("calls = %d, want at most 1", calls)
	}
}

func TestDoRejectsAlreadyCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}.Do(ctx, func() error {
		t.Fatal("fn ran on a dead context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }

	rl := RateLimitError{Provider: "test"}
	cb.OnError(rl)
	if !cb.Allow() {
		t.Fatal("breaker opened below threshold")
	}
	cb.OnError(rl)
	if cb.Allow() {
		t.Fatal("breaker stayed closed at threshold")
	}

	now = now.Add(2 * time.Minute)
	if !cb.Allow() {
		t.Error("breaker stayed open past cooldown")
	}
}

func TestCircuitBreakerIgnoresOtherErrors(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)
	cb.OnError(errors.New("boom"))
	if !cb.Allow() {
		t.Error("non-rate-limit error tripped the breaker")
	}
}

func TestCircuitBreakerResetsOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute)
	cb.OnError(RateLimitError{})
	cb.OnSuccess()
	cb.OnError(RateLimitError{})
	if !cb.Allow() {
		t.Error("success did not reset the failure count")
	}
}
