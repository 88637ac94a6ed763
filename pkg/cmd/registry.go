package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prodflow/prodflow/pkg/expressions"
	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/tools"
)

// NewToolRegistry builds the tool registry with the builtin tools available
// to every agent.
func NewToolRegistry(logger *slog.Logger) *tools.Registry {
	registry := tools.NewRegistry(logger)

	registerCurrentDate(registry)
	registerCalculator(registry)

	return registry
}

func registerCurrentDate(registry *tools.Registry) {
	registry.Register(models.ToolDefinition{
		Name:        "current_date",
		Description: "Returns the current date and time in UTC, RFC 3339 formatted.",
	}, func(_ context.Context, _ map[string]any) (string, error) {
		return time.Now().UTC().Format(time.RFC3339), nil
	})
}

func registerCalculator(registry *tools.Registry) {
	engine := expressions.NewEngine()

	registry.Register(models.ToolDefinition{
		Name:        "calculator",
		Description: "Evaluates an arithmetic expression and returns the result.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{
					"type":        "string",
					"description": "The arithmetic expression to evaluate, e.g. \"2 * (3 + 4)\".",
				},
			},
			"required": []any{"expression"},
		},
	}, func(_ context.Context, args map[string]any) (string, error) {
		expression, ok := args["expression"].(string)
		if !ok {
			return "", fmt.Errorf("expression must be a string")
		}

		result, err := engine.Evaluate(expression, nil)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("%v", result), nil
	})
}
