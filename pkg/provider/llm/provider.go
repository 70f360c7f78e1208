// Package llm defines the Provider interface for the language-model
// backends used by the redraft editor.
//
// A provider wraps a remote chat-completions API (OpenAI, an
// OpenAI-compatible custom endpoint, or one of the hosted backends exposed
// through any-llm-go) behind a uniform non-streaming interface. The editor
// issues exactly one completion per pass and consumes the assistant text
// verbatim, so no streaming or tool-calling surface exists here.
//
// Implementations must be safe for concurrent use and must propagate
// context cancellation promptly: when ctx is cancelled the in-flight HTTP
// request is torn down and Complete returns an error satisfying
// [IsCancelled]. Transport and protocol failures are returned as *[Error]
// values so callers can branch on [ErrorKind] without string matching.
package llm

import "context"

// Provider is the abstraction over any chat-completion backend.
//
// Implementations must be safe for concurrent use from multiple
// goroutines.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	//
	// Errors are classified: transport, protocol, auth, and throttling
	// failures are returned as *[Error]; cancellation is surfaced so that
	// [IsCancelled] reports true.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Capabilities returns static metadata describing the underlying
	// model. The result is constant for the lifetime of the Provider.
	Capabilities() ModelCapabilities
}
