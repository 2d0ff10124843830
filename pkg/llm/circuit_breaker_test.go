package llm

import (
	"context"
	"testing"
	"time"

	"github.com/harunnryd/strum/pkg/errorsx"
	"github.com/harunnryd/strum/pkg/resilience"
)

type throttledAdapter struct{}

func (throttledAdapter) Name() string { return "throttled" }

func (throttledAdapter) Generate(ctx context.Context, input Context) (Response, error) {
	return Response{}, resilience.RateLimitError{Provider: "throttled"}
}

func (throttledAdapter) Stream(ctx context.Context, input Context) (<-chan Chunk, error) {
	return nil, resilience.RateLimitError{Provider: "throttled"}
}

func TestBreakerDenialReadsAsRateLimit(t *testing.T) {
	breaker := resilience.NewCircuitBreaker(1, time.Minute)
	adapter := NewCircuitBreakerAdapter(throttledAdapter{}, breaker)
	ctx := context.Background()

	// First call trips the breaker; the second is denied locally.
	if _, err := adapter.Generate(ctx, Context{}); !resilience.IsRateLimit(err) {
		t.Fatalf("first call err = %v, want rate limit", err)
	}
	_, err := adapter.Generate(ctx, Context{})
	if !resilience.IsRateLimit(err) {
		t.Fatalf("denied call err = %v, want rate limit", err)
	}
	if !errorsx.HasReason(err, errorsx.ReasonLLMRateLimit) {
		t.Errorf("denied call reason = %q, want %q", errorsx.Reason(err), errorsx.ReasonLLMRateLimit)
	}

	if _, err := adapter.Stream(ctx, Context{}); !errorsx.HasReason(err, errorsx.ReasonLLMRateLimit) {
		t.Errorf("denied stream reason = %q, want %q", errorsx.Reason(err), errorsx.ReasonLLMRateLimit)
	}
}
