// Package tools provides the tool registry consumed by the agent loop.
// A registry is constructed once at startup, populated by explicit Register
// calls, and only read afterwards, so concurrent conversations can resolve
// tools without synchronization.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prodflow/prodflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// Handler executes a tool call. Handlers are stateless pure functions from
// structured arguments to a string result.
type Handler func(ctx context.Context, args map[string]any) (string, error)

type registration struct {
	definition models.ToolDefinition
	handler    Handler
}

// Registry maps tool names to handlers. Construct one per process (or per
// tenant/test) and inject it into the agent runner.
type Registry struct {
	logger *slog.Logger
	tools  map[string]registration
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		tools:  make(map[string]registration),
	}
}

// Register adds a tool. Registration happens once at startup, before any
// conversation begins.
func (r *Registry) Register(definition models.ToolDefinition, handler Handler) {
	r.tools[definition.Name] = registration{definition: definition, handler: handler}
}

// Definitions returns the declared definitions of the named tools, skipping
// names that are not registered. Used to advertise an agent's tool schemas to
// the model gateway.
func (r *Registry) Definitions(names []string) []models.ToolDefinition {
	definitions := make([]models.ToolDefinition, 0, len(names))

	for _, name := range names {
		if reg, ok := r.tools[name]; ok {
			definitions = append(definitions, reg.definition)
		}
	}

	return definitions
}

// Execute resolves and invokes a tool, always returning a string result.
// Errors never propagate: an unknown tool, invalid arguments or a failing
// handler produce a descriptive result string that informs the model instead
// of aborting the conversation.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) string {
	reg, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("tool not implemented: %s", name)
	}

	if err := r.validateArguments(reg.definition, args); err != nil {
		r.logger.Warn("Tool call arguments rejected", "tool", name, "error", err)

		return fmt.Sprintf("invalid arguments for tool %s: %v", name, err)
	}

	result, err := reg.handler(ctx, args)
	if err != nil {
		r.logger.Warn("Tool execution failed", "tool", name, "error", err)

		return fmt.Sprintf("tool execution failed: %v", err)
	}

	return result
}

// validateArguments checks args against the tool's declared JSON Schema, when
// one is declared.
func (r *Registry) validateArguments(definition models.ToolDefinition, args map[string]any) error {
	if len(definition.Parameters) == 0 {
		return nil
	}

	if args == nil {
		args = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(definition.Parameters),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}

		return fmt.Errorf("%s", strings.Join(reasons, "; "))
	}

	return nil
}
