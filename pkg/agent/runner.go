// Package agent drives bounded conversational exchanges between an agent's
// system prompt, the model gateway and the tool registry.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prodflow/prodflow/pkg/gateway"
	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/otelhelper"
	"github.com/prodflow/prodflow/pkg/persistence"
	"github.com/prodflow/prodflow/pkg/tools"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxIterations bounds the tool-calling loop of one SendMessage call.
const DefaultMaxIterations = 10

// ErrMaxIterations reports that the agent loop hit its iteration budget
// without the model producing a final answer. Distinct from gateway and tool
// errors so callers can tell a runaway loop from a provider failure.
var ErrMaxIterations = errors.New("exceeded maximum iterations")

// PromptSelector resolves an active A/B prompt version for an agent. A nil
// version means no experiment is active and the agent record's own prompt is
// used. Implemented by the external split-testing pipeline.
type PromptSelector interface {
	ActiveVersion(ctx context.Context, agentID string) (*models.PromptVersion, error)
}

// SendResult is the outcome of a completed conversational turn.
type SendResult struct {
	Response   string   `json:"response"`
	ToolsUsed  []string `json:"tools_used"`
	Iterations int      `json:"iterations"`
}

// ExecuteResult is the outcome of a one-shot agent execution.
type ExecuteResult struct {
	Response  string        `json:"response"`
	Usage     gateway.Usage `json:"usage"`
	VersionID string        `json:"version_id,omitempty"`
	VariantID string        `json:"variant_id,omitempty"`
}

// Runner executes agent conversations. One Runner serves many concurrent
// conversations; each conversation owns its message history exclusively.
type Runner struct {
	logger        *slog.Logger
	persistence   persistence.Persistence
	gateway       gateway.ModelGateway
	tools         *tools.Registry
	selector      PromptSelector
	maxIterations int
	tracer        trace.Tracer
}

type RunnerOption func(*Runner)

// WithMaxIterations overrides the default iteration budget.
func WithMaxIterations(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxIterations = n
		}
	}
}

// WithPromptSelector wires an A/B prompt-version selector for one-shot
// executions.
func WithPromptSelector(selector PromptSelector) RunnerOption {
	return func(r *Runner) {
		r.selector = selector
	}
}

func NewRunner(
	logger *slog.Logger,
	persistence persistence.Persistence,
	modelGateway gateway.ModelGateway,
	registry *tools.Registry,
	opts ...RunnerOption,
) *Runner {
	runner := &Runner{
		logger:        logger,
		persistence:   persistence,
		gateway:       modelGateway,
		tools:         registry,
		maxIterations: DefaultMaxIterations,
		tracer:        otel.Tracer("prodflow/agent"),
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// SendMessage appends the user message to the conversation and iterates
// model turns, executing requested tools and feeding their results back,
// until the model produces a final answer or the iteration budget is
// exhausted. Messages are persisted in the exact order they are produced;
// that order is replayed to the gateway on every turn.
func (r *Runner) SendMessage(ctx context.Context, conversationID, content string) (*SendResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "agent.send_message",
		attribute.String(otelhelper.ConversationIDKey, conversationID),
	)
	defer span.End()

	conversation, err := r.persistence.ConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	agentRecord, err := r.persistence.AgentByID(ctx, conversation.AgentID)
	if err != nil {
		return nil, err
	}

	logger := r.logger.With(
		"conversation_id", conversationID,
		"agent_id", agentRecord.ID,
	)

	prior, err := r.persistence.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	userMessage := r.newMessage(conversationID, models.RoleUser, content)
	if err := r.persistence.AppendMessage(ctx, userMessage); err != nil {
		return nil, err
	}

	// The system prompt is prepended at assembly time, never persisted, so
	// agent prompt updates take effect on the next turn of an ongoing
	// conversation.
	history := make([]*models.Message, 0, len(prior)+2)
	history = append(history, &models.Message{Role: models.RoleSystem, Content: agentRecord.SystemPrompt})
	history = append(history, prior...)
	history = append(history, userMessage)

	// The registry is the authority on tool schemas: the agent declares which
	// tools it may use, and only declared tools with a registered handler are
	// advertised to the model.
	declaredTools := r.tools.Definitions(toolNames(agentRecord.Tools))

	toolsUsed := make([]string, 0)

	for iteration := 1; iteration <= r.maxIterations; iteration++ {
		logger.Debug("Requesting model completion", "iteration", iteration)

		response, err := r.gateway.Complete(ctx, gateway.ChatRequest{
			Model:    agentRecord.Model,
			Messages: history,
			Tools:    declaredTools,
		})
		if err != nil {
			otelhelper.SetError(span, err)

			return nil, fmt.Errorf("model gateway call failed: %w", err)
		}

		assistantMessage := r.newMessage(conversationID, models.RoleAssistant, response.Content)
		assistantMessage.ToolCalls = response.ToolCalls

		if err := r.persistence.AppendMessage(ctx, assistantMessage); err != nil {
			return nil, err
		}

		history = append(history, assistantMessage)

		if len(response.ToolCalls) == 0 {
			logger.Info("Conversation turn completed",
				"iterations", iteration,
				"tools_used", len(toolsUsed),
			)

			return &SendResult{
				Response:   response.Content,
				ToolsUsed:  toolsUsed,
				Iterations: iteration,
			}, nil
		}

		for _, call := range response.ToolCalls {
			result := r.tools.Execute(ctx, call.Name, call.Arguments)
			toolsUsed = append(toolsUsed, call.Name)

			toolMessage := r.newMessage(conversationID, models.RoleTool, result)
			toolMessage.ToolCallID = call.ID

			if err := r.persistence.AppendMessage(ctx, toolMessage); err != nil {
				return nil, err
			}

			history = append(history, toolMessage)
		}
	}

	err = fmt.Errorf("%w (%d)", ErrMaxIterations, r.maxIterations)
	otelhelper.SetError(span, err)
	logger.Error("Agent loop exhausted its iteration budget", "max_iterations", r.maxIterations)

	return nil, err
}

// ExecuteAgent performs a single gateway turn against the agent, without the
// tool loop and without persisting a conversation. When a prompt selector is
// configured and an experiment is active, the selected version's prompt and
// model override the agent record for this one execution and the served
// version/variant are reported in the result.
func (r *Runner) ExecuteAgent(ctx context.Context, agentID, input string) (*ExecuteResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "agent.execute",
		attribute.String(otelhelper.AgentIDKey, agentID),
	)
	defer span.End()

	agentRecord, err := r.persistence.AgentByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	systemPrompt := agentRecord.SystemPrompt
	model := agentRecord.Model
	result := &ExecuteResult{}

	if r.selector != nil {
		version, err := r.selector.ActiveVersion(ctx, agentID)
		if err != nil {
			r.logger.Warn("Prompt version selection failed, using agent defaults",
				"agent_id", agentID, "error", err)
		} else if version != nil {
			systemPrompt = version.SystemPrompt
			if version.Model != "" {
				model = version.Model
			}

			result.VersionID = version.ID
			result.VariantID = version.VariantID
		}
	}

	response, err := r.gateway.Complete(ctx, gateway.ChatRequest{
		Model: model,
		Messages: []*models.Message{
			{Role: models.RoleSystem, Content: systemPrompt},
			{Role: models.RoleUser, Content: input},
		},
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("model gateway call failed: %w", err)
	}

	result.Response = response.Content
	result.Usage = response.Usage

	return result, nil
}

func toolNames(tools []models.ToolDefinition) []string {
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}

	return names
}

func (r *Runner) newMessage(conversationID string, role models.MessageRole, content string) *models.Message {
	return &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
}
