package llm

import "context"

// Message is a single chat-completion message.
type Message struct {
	Role    string `json:"role"` // "system" | "user" | "assistant"
	Content string `json:"content"`
}

// CompletionRequest carries one chat-completion call.
type CompletionRequest struct {
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Completer is the model-service capability the pipeline depends on.
// Implementations retry transient failures internally and return
// *APIError for non-2xx terminal outcomes.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
