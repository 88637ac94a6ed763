// Package gateway defines the model provider interface consumed by the agent
// loop, together with an OpenAI-compatible implementation.
package gateway

import (
	"context"

	"github.com/prodflow/prodflow/pkg/models"
)

// ChatRequest is one synchronous round trip to the model provider: the full
// ordered message history, the declared tool schemas and the generation knobs.
type ChatRequest struct {
	Model       string
	Messages    []*models.Message
	Tools       []models.ToolDefinition
	Temperature float32
	MaxTokens   int
}

// Usage carries the provider's token accounting for one turn.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the provider's answer: generated text (possibly empty when
// only tool calls are returned) and any requested tool calls.
type ChatResponse struct {
	Content      string
	ToolCalls    []models.ToolCall
	FinishReason string
	Usage        Usage
}

// ModelGateway sends a role-tagged message sequence to a language-model
// provider. Single request/response, no streaming. Any transport or provider
// failure surfaces as an error to the caller.
type ModelGateway interface {
	Complete(ctx context.Context, request ChatRequest) (*ChatResponse, error)
}
