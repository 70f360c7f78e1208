// Package openaicompat provides an [llm.Provider] that speaks the
// OpenAI chat-completions wire protocol against arbitrary compatible
// endpoints (llama.cpp server, vLLM, LM Studio, OpenRouter, …).
//
// Unlike the SDK-backed providers, this client owns the request and
// response bytes directly: it resolves partial base URLs to the
// /chat/completions path, attaches bearer auth only when a key is
// configured, and maps raw HTTP statuses onto the classified error
// taxonomy in [llm] — including capturing Retry-After on 429s. Use it for
// the "custom" backend, where the server on the other side is not
// guaranteed to behave like api.openai.com beyond the documented subset.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/voxlane/redraft/pkg/provider/llm"
)

// Client implements [llm.Provider] over a plain HTTP transport.
// It is safe for concurrent use.
type Client struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	caps       llm.ModelCapabilities
}

// Compile-time interface assertion.
var _ llm.Provider = (*Client)(nil)

// Option is a functional option for [New].
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. Useful in tests
// and for callers that manage their own transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCapabilities overrides the advertised model capabilities. Custom
// endpoints serve arbitrary models, so there is no name-based table to
// consult; callers that know their server's limits can declare them.
func WithCapabilities(caps llm.ModelCapabilities) Option {
	return func(c *Client) { c.caps = caps }
}

// New constructs a Client for the given endpoint base URL and model name.
// apiKey may be empty, in which case no Authorization header is sent.
func New(endpointURL, apiKey, model string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(endpointURL) == "" {
		return nil, fmt.Errorf("openaicompat: %w: endpoint URL is empty", llm.ErrNotConfigured)
	}
	if model == "" {
		return nil, fmt.Errorf("openaicompat: %w: model name is empty", llm.ErrNotConfigured)
	}

	c := &Client{
		url:        ResolveEndpoint(endpointURL),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		caps: llm.ModelCapabilities{
			ContextWindow:    8_192,
			MaxOutputTokens:  4_096,
			SupportsJSONMode: true,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ResolveEndpoint normalises a configured base URL to the full
// chat-completions URL:
//
//   - ".../chat/completions" is used as-is,
//   - ".../v1" gets "/chat/completions" appended,
//   - anything else gets "/v1/chat/completions" appended.
func ResolveEndpoint(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	switch {
	case strings.HasSuffix(trimmed, "/chat/completions"):
		return trimmed
	case strings.HasSuffix(trimmed, "/v1"):
		return trimmed + "/chat/completions"
	default:
		return trimmed + "/v1/chat/completions"
	}
}

// wire-format request/response types.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete implements [llm.Provider].
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	body := chatRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONObject {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openaicompat: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("openaicompat: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &llm.Error{
			Kind:    llm.KindInvalidResponse,
			Message: "response body is not valid JSON",
			Err:     err,
		}
	}
	if len(parsed.Choices) == 0 {
		return nil, &llm.Error{
			Kind:    llm.KindInvalidResponse,
			Message: "response has no choices",
		}
	}

	return &llm.CompletionResponse{
		Content: parsed.Choices[0].Message.Content,
		Usage: llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}

// Capabilities implements [llm.Provider].
func (c *Client) Capabilities() llm.ModelCapabilities {
	return c.caps
}

// classifyTransport maps a transport-level failure onto the error
// taxonomy. Caller cancellation is surfaced as the bare context error so
// that [llm.IsCancelled] holds.
func classifyTransport(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &llm.Error{Kind: llm.KindTimeout, Message: "request deadline exceeded", Err: err}
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return &llm.Error{Kind: llm.KindTimeout, Message: "request timed out", Err: err}
	}
	return &llm.Error{Kind: llm.KindNetwork, Message: err.Error(), Err: err}
}

// classifyStatus maps a non-2xx HTTP response onto the error taxonomy.
func classifyStatus(resp *http.Response, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &llm.Error{Kind: llm.KindAuth, Status: resp.StatusCode, Message: msg}

	case resp.StatusCode == http.StatusTooManyRequests:
		e := &llm.Error{Kind: llm.KindRateLimited, Status: resp.StatusCode, Message: msg}
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(strings.TrimSpace(ra)); err == nil && secs >= 0 {
				e.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return e

	default:
		return &llm.Error{Kind: llm.KindServer, Status: resp.StatusCode, Message: msg}
	}
}
