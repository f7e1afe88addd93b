package domain

// Message represents a chat message in a return-assistant conversation.
//
// Role is one of "system", "user", "assistant" or "function". A message with
// a FunctionCall carries no content; a function-role message carries the JSON
// result of a tool invocation and names the tool it answers.
type Message struct {
	ID           string        `json:"id,omitempty"`
	Role         string        `json:"role"`
	Content      string        `json:"content"`
	Name         string        `json:"name,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// FunctionCall is a tool invocation proposed by the model. Arguments is a
// JSON-encoded object; it may be malformed or incomplete and must be treated
// as untrusted input.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// FunctionDef describes a callable tool exposed to the model.
type FunctionDef struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters"` // JSON Schema
}

// CompletionRequest is the canonical request sent to the completion provider.
type CompletionRequest struct {
	Model        string        `json:"model"`
	Messages     []Message     `json:"messages"`
	Stream       bool          `json:"stream"`
	Temperature  float32       `json:"temperature,omitempty"`
	Functions    []FunctionDef `json:"functions,omitempty"`
	FunctionCall string        `json:"function_call,omitempty"`
}

// Usage represents token usage reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FunctionCallDelta is a partial function call received while streaming.
// Name arrives on the first delta; Arguments accumulate across deltas.
type FunctionCallDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// CompletionEvent is a single event from a streaming completion.
type CompletionEvent struct {
	Role          string             // e.g. "assistant", set on the first event
	ContentDelta  string             // text fragment
	FunctionDelta *FunctionCallDelta // partial function-call data
	FinishReason  string             // set on the final event of a choice
	Usage         *Usage             // final event often carries token counts
	Error         error              // in-stream errors
}
