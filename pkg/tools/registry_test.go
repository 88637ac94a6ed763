package tools

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/prodflow/prodflow/pkg/models"
	"github.com/stretchr/testify/assert"
)

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestRegistry_Execute(t *testing.T) {
	registry := newTestRegistry()
	registry.Register(models.ToolDefinition{Name: "echo"}, func(_ context.Context, args map[string]any) (string, error) {
		text, _ := args["text"].(string)

		return "echo: " + text, nil
	})

	result := registry.Execute(context.Background(), "echo", map[string]any{"text": "hello"})
	assert.Equal(t, "echo: hello", result)
}

func TestRegistry_Execute_UnknownTool(t *testing.T) {
	registry := newTestRegistry()

	result := registry.Execute(context.Background(), "missing", nil)
	assert.Equal(t, "tool not implemented: missing", result)
}

func TestRegistry_Execute_HandlerErrorBecomesResult(t *testing.T) {
	registry := newTestRegistry()
	registry.Register(models.ToolDefinition{Name: "broken"}, func(_ context.Context, _ map[string]any) (string, error) {
		return "", errors.New("boom")
	})

	result := registry.Execute(context.Background(), "broken", nil)
	assert.Equal(t, "tool execution failed: boom", result)
}

func TestRegistry_Execute_SchemaValidation(t *testing.T) {
	registry := newTestRegistry()
	registry.Register(models.ToolDefinition{
		Name: "lookup",
		Parameters: map[string]any{
			"type":     "object",
			"required": []any{"query"},
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
			},
		},
	}, func(_ context.Context, args map[string]any) (string, error) {
		return "found: " + args["query"].(string), nil
	})

	result := registry.Execute(context.Background(), "lookup", map[string]any{"query": "roadmap"})
	assert.Equal(t, "found: roadmap", result)

	result = registry.Execute(context.Background(), "lookup", map[string]any{})
	assert.Contains(t, result, "invalid arguments for tool lookup")

	result = registry.Execute(context.Background(), "lookup", map[string]any{"query": 42})
	assert.Contains(t, result, "invalid arguments for tool lookup")
}

func TestRegistry_Definitions(t *testing.T) {
	registry := newTestRegistry()
	registry.Register(models.ToolDefinition{Name: "a", Description: "first"}, func(_ context.Context, _ map[string]any) (string, error) {
		return "", nil
	})
	registry.Register(models.ToolDefinition{Name: "b"}, func(_ context.Context, _ map[string]any) (string, error) {
		return "", nil
	})

	definitions := registry.Definitions([]string{"a", "unknown", "b"})
	assert.Len(t, definitions, 2)
	assert.Equal(t, "a", definitions[0].Name)
	assert.Equal(t, "b", definitions[1].Name)
}
