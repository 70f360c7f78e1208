// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify the editor sends correct
// CompletionRequests and to feed controlled responses without a live
// backend. All fields are safe to set before calling any method;
// mutating them during a concurrent call is the caller's responsibility.
//
// Example:
//
//	p := &mock.Provider{
//	    CompleteResponses: []*llm.CompletionResponse{{Content: `{"edited_text":"hi"}`}},
//	}
//	resp, err := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/voxlane/redraft/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
//
// Responses are consumed in order: the first Complete call returns
// CompleteResponses[0] (or CompleteErrs[0] when non-nil), the second call
// the next entry, and so on. When the call index runs past the end of a
// slice, the last entry is reused — a single-entry slice therefore
// behaves as a fixed response.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// CompleteResponses is the sequence of responses returned by Complete.
	CompleteResponses []*llm.CompletionResponse

	// CompleteErrs is the sequence of errors returned by Complete. A nil
	// entry means the corresponding call succeeds with its response.
	CompleteErrs []error

	// CompleteFn, when non-nil, overrides the canned responses entirely.
	CompleteFn func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)

	// Caps is returned by Capabilities.
	Caps llm.ModelCapabilities

	// --- Call records (read after test) ---

	// CompleteCalls records every invocation of Complete in order.
	CompleteCalls []CompleteCall
}

// Compile-time interface assertion.
var _ llm.Provider = (*Provider)(nil)

// Complete records the call and returns the next canned response.
// Context cancellation takes precedence over canned values.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	idx := len(p.CompleteCalls)
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, Req: req})
	fn := p.CompleteFn
	resp := pick(p.CompleteResponses, idx)
	err := pick(p.CompleteErrs, idx)
	p.mu.Unlock()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Capabilities returns Caps.
func (p *Provider) Capabilities() llm.ModelCapabilities {
	return p.Caps
}

// pick returns s[i], clamping i to the last element. Zero value for an
// empty slice.
func pick[T any](s []T, i int) T {
	var zero T
	if len(s) == 0 {
		return zero
	}
	if i >= len(s) {
		i = len(s) - 1
	}
	return s[i]
}
