package llm

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// ModelCapabilities describes static metadata about a backend model.
type ModelCapabilities struct {
	// ContextWindow is the maximum token count for input + output.
	ContextWindow int

	// MaxOutputTokens is the maximum tokens the model can generate in one
	// completion. Zero means unknown.
	MaxOutputTokens int

	// SupportsJSONMode indicates the backend honours a JSON-object
	// response format constraint natively. Backends without native
	// support still receive the format instruction via the prompt.
	SupportsJSONMode bool
}

// Usage holds token accounting returned by the backend. All counts are in
// the model's native token unit.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens. Some backends return
	// it directly rather than computing it from the parts.
	TotalTokens int
}

// CompletionRequest carries everything a backend needs to produce a
// response. A zero-value request is invalid; at minimum Messages must be
// non-empty.
type CompletionRequest struct {
	// SystemPrompt is a high-priority instruction injected before the
	// conversation. Backends without a dedicated system slot prepend it
	// as a "system"-role message.
	SystemPrompt string

	// Messages is the ordered conversation. The editor always sends
	// exactly one "user" message.
	Messages []Message

	// Temperature controls output randomness in [0.0, 2.0]. 0.0 requests
	// greedy decoding.
	Temperature float64

	// MaxTokens caps the number of completion tokens. Zero means use the
	// backend default.
	MaxTokens int

	// JSONObject requests the backend constrain output to a single JSON
	// object (OpenAI response_format "json_object"). Backends that cannot
	// honour it ignore the flag; the prompt carries the same instruction.
	JSONObject bool
}

// CompletionResponse is the full, non-streaming result of a completion.
type CompletionResponse struct {
	// Content is the assistant's reply text.
	Content string

	// Usage contains token accounting for this request/response pair.
	// Zero-valued when the backend does not report usage.
	Usage Usage
}
