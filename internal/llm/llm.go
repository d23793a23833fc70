package llm

import "context"

// CompletionRequest describes one model invocation.
type CompletionRequest struct {
	SystemPrompt string
	Prompt       string
	Temperature  float64
	MaxTokens    int64
	JSONResponse bool
}

// CompletionResponse is the raw model output plus call metadata.
type CompletionResponse struct {
	Content      string
	TokensUsed   int64
	FinishReason string
	Model        string
}

// Client defines the interface contract for language-model providers.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	ModelName() string
}
