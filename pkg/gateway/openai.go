package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prodflow/prodflow/pkg/models"
	openai "github.com/sashabaranov/go-openai"
)

// defaultTimeout bounds every gateway round trip. The orchestration core has
// no wall-clock budget of its own, so a stuck provider call is cut off here.
const defaultTimeout = 120 * time.Second

// OpenAIGateway implements ModelGateway against an OpenAI-compatible chat
// completions endpoint.
type OpenAIGateway struct {
	client *openai.Client
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func NewOpenAIGateway(cfg OpenAIConfig) (*OpenAIGateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai gateway: api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIGateway{client: openai.NewClientWithConfig(clientConfig)}, nil
}

func (g *OpenAIGateway) Complete(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       request.Model,
		Messages:    toOpenAIMessages(request.Messages),
		Tools:       toOpenAITools(request.Tools),
		Temperature: request.Temperature,
		MaxTokens:   request.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	choice := resp.Choices[0]

	return &ChatResponse{
		Content:      choice.Message.Content,
		ToolCalls:    fromOpenAIToolCalls(choice.Message.ToolCalls),
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func toOpenAIMessages(messages []*models.Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))

	for _, message := range messages {
		chatMessage := openai.ChatCompletionMessage{
			Role:       string(message.Role),
			Content:    message.Content,
			ToolCallID: message.ToolCallID,
		}

		for _, call := range message.ToolCalls {
			arguments, err := json.Marshal(call.Arguments)
			if err != nil {
				arguments = []byte("{}")
			}

			chatMessage.ToolCalls = append(chatMessage.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: string(arguments),
				},
			})
		}

		converted = append(converted, chatMessage)
	}

	return converted
}

func toOpenAITools(definitions []models.ToolDefinition) []openai.Tool {
	if len(definitions) == 0 {
		return nil
	}

	converted := make([]openai.Tool, 0, len(definitions))

	for _, definition := range definitions {
		converted = append(converted, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        definition.Name,
				Description: definition.Description,
				Parameters:  definition.Parameters,
			},
		})
	}

	return converted
}

func fromOpenAIToolCalls(calls []openai.ToolCall) []models.ToolCall {
	if len(calls) == 0 {
		return nil
	}

	converted := make([]models.ToolCall, 0, len(calls))

	for _, call := range calls {
		arguments := map[string]any{}
		if call.Function.Arguments != "" {
			// Malformed argument payloads degrade to an empty argument map;
			// schema validation downstream reports the problem to the model.
			_ = json.Unmarshal([]byte(call.Function.Arguments), &arguments)
		}

		converted = append(converted, models.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: arguments,
		})
	}

	return converted
}
