package resilience

import (
	"context"

	"github.com/voxlane/redraft/pkg/provider/llm"
)

// GuardedProvider wraps an [llm.Provider] with a [CircuitBreaker]. When
// the breaker is open, Complete fails fast with [ErrOpen] instead of
// dialling a backend that has been failing; the pipeline treats that
// like any other model error and produces its deterministic fallback.
//
// Caller cancellation is neutral: it is neither a success nor a failure
// for breaker accounting.
type GuardedProvider struct {
	inner   llm.Provider
	breaker *CircuitBreaker
}

// Compile-time interface assertion.
var _ llm.Provider = (*GuardedProvider)(nil)

// Guard wraps provider with a breaker configured by cfg.
func Guard(provider llm.Provider, cfg BreakerConfig) *GuardedProvider {
	return &GuardedProvider{
		inner:   provider,
		breaker: NewCircuitBreaker(cfg),
	}
}

// Complete implements [llm.Provider].
func (g *GuardedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if !g.breaker.Allow() {
		return nil, &llm.Error{Kind: llm.KindNetwork, Message: ErrOpen.Error(), Err: ErrOpen}
	}

	resp, err := g.inner.Complete(ctx, req)
	if err != nil && llm.IsCancelled(err) {
		// The admitted call was abandoned by the caller; release the
		// half-open probe slot without judging the backend.
		g.breaker.Release()
		return nil, err
	}
	g.breaker.Record(err == nil)
	return resp, err
}

// Capabilities implements [llm.Provider].
func (g *GuardedProvider) Capabilities() llm.ModelCapabilities {
	return g.inner.Capabilities()
}

// BreakerState exposes the current breaker state for health reporting.
func (g *GuardedProvider) BreakerState() BreakerState {
	return g.breaker.State()
}
