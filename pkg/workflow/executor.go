// Package workflow implements the execution interpreter that steps running
// workflow instances through their state graphs.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prodflow/prodflow/pkg/agent"
	"github.com/prodflow/prodflow/pkg/eventbus"
	"github.com/prodflow/prodflow/pkg/events"
	"github.com/prodflow/prodflow/pkg/expressions"
	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/otelhelper"
	"github.com/prodflow/prodflow/pkg/persistence"
	"github.com/prodflow/prodflow/pkg/template"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrExecutionFinished reports an attempt to send an event to an execution
// that already completed or failed.
var ErrExecutionFinished = errors.New("execution already finished")

// DefaultMaxSteps bounds one interpretation run. Definitions may legally
// contain cycles that never reach an end state; the ceiling turns a runaway
// cycle into a failed execution instead of an unbounded loop.
const DefaultMaxSteps = 100

// Context keys written by the interpreter.
const (
	lastResponseKey       = "last_response"
	lastEventKey          = "last_event"
	conversationKeyPrefix = "_conversation_"
	responseKeySuffix     = "_response"
	conditionResultSuffix = "_result"
)

// AgentRunner is the conversational loop consumed by agent states.
type AgentRunner interface {
	SendMessage(ctx context.Context, conversationID, content string) (*agent.SendResult, error)
}

// Executor interprets workflow executions one state at a time, merging each
// state's output into the context, recording history and persisting progress
// after every step. One execution is processed by exactly one Executor call
// at a time.
type Executor struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	runner      AgentRunner
	expressions *expressions.Engine
	bus         eventbus.EventPublisher
	maxSteps    int
	tracer      trace.Tracer
}

type ExecutorOption func(*Executor)

// WithMaxSteps overrides the default step ceiling.
func WithMaxSteps(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithEventBus wires lifecycle event publication. Publishing is best-effort;
// bus failures are logged, never fail a step.
func WithEventBus(bus eventbus.EventPublisher) ExecutorOption {
	return func(e *Executor) {
		e.bus = bus
	}
}

func NewExecutor(
	logger *slog.Logger,
	persistence persistence.Persistence,
	runner AgentRunner,
	opts ...ExecutorOption,
) *Executor {
	executor := &Executor{
		logger:      logger,
		persistence: persistence,
		runner:      runner,
		expressions: expressions.NewEngine(),
		maxSteps:    DefaultMaxSteps,
		tracer:      otel.Tracer("prodflow/workflow"),
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Start creates a new execution for the workflow and interprets it until it
// completes, fails or pauses waiting for an external event. Once an
// execution exists, step failures become data on the returned record rather
// than errors; the returned error covers call-boundary problems (unknown
// workflow, storage failures).
func (e *Executor) Start(ctx context.Context, workflowID string, initialContext models.Context) (*models.WorkflowExecution, error) {
	workflow, err := e.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	execution := &models.WorkflowExecution{
		ID:           uuid.New().String(),
		WorkflowID:   workflowID,
		CurrentState: workflow.InitialState,
		Status:       models.ExecutionStatusRunning,
		Context:      models.Context{},
		History:      []models.HistoryEntry{},
		CreatedAt:    time.Now().UTC(),
	}
	execution.Context.Merge(initialContext)

	if err := e.saveExecution(ctx, execution); err != nil {
		return nil, err
	}

	e.publish(ctx, execution.ID, &events.ExecutionStarted{
		BaseEvent:      events.NewBaseEvent(events.ExecutionStartedEvent, workflowID, execution.ID),
		InitialContext: execution.Context.Clone(),
	})

	e.logger.Info("Starting workflow execution",
		"workflow_id", workflowID,
		"execution_id", execution.ID,
		"initial_state", workflow.InitialState,
	)

	if err := e.run(ctx, workflow, execution); err != nil {
		return nil, err
	}

	return execution, nil
}

// SendEvent resumes a paused execution: it merges data into the context,
// tags the context with the event and re-enters the step loop at the
// current state. Only valid while the execution is still running.
func (e *Executor) SendEvent(ctx context.Context, executionID, event string, data models.Context) (*models.WorkflowExecution, error) {
	execution, err := e.persistence.ExecutionByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	if execution.IsTerminal() {
		return nil, fmt.Errorf("execution %s is %s and cannot receive events: %w",
			executionID, execution.Status, ErrExecutionFinished)
	}

	workflow, err := e.persistence.WorkflowByID(ctx, execution.WorkflowID)
	if err != nil {
		return nil, err
	}

	execution.Context.Merge(data)
	execution.Context[lastEventKey] = event

	e.publish(ctx, execution.ID, &events.ExecutionResumed{
		BaseEvent: events.NewBaseEvent(events.ExecutionResumedEvent, execution.WorkflowID, execution.ID),
		StateName: execution.CurrentState,
		Event:     event,
	})

	e.logger.Info("Resuming workflow execution",
		"execution_id", executionID,
		"event", event,
		"current_state", execution.CurrentState,
	)

	if err := e.run(ctx, workflow, execution); err != nil {
		return nil, err
	}

	return execution, nil
}

// run is the step loop. It persists the execution after every step, so step
// N's state is durable before step N+1 begins.
func (e *Executor) run(ctx context.Context, workflow *models.WorkflowDefinition, execution *models.WorkflowExecution) error {
	logger := e.logger.With(
		"workflow_id", workflow.ID,
		"execution_id", execution.ID,
	)

	for steps := 0; ; steps++ {
		if steps >= e.maxSteps {
			return e.fail(ctx, execution, execution.CurrentState,
				fmt.Errorf("exceeded maximum workflow steps (%d)", e.maxSteps))
		}

		state, found := workflow.StateByName(execution.CurrentState)
		if !found {
			return e.fail(ctx, execution, execution.CurrentState,
				fmt.Errorf("state %q not found in workflow %s", execution.CurrentState, workflow.ID))
		}

		stepCtx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.step",
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
			attribute.String(otelhelper.StateNameKey, state.Name),
			attribute.String(otelhelper.StateKindKey, string(state.Kind)),
		)

		snapshot := execution.Context.Clone()

		output, event, err := e.dispatch(stepCtx, state, execution)
		if err != nil {
			otelhelper.SetError(span, err)
			span.End()
			logger.Error("Step dispatch failed", "state", state.Name, "error", err)

			return e.fail(ctx, execution, state.Name, err)
		}

		execution.Context.Merge(output)
		execution.History = append(execution.History, models.HistoryEntry{
			StateName: state.Name,
			Timestamp: time.Now().UTC(),
			Input:     snapshot,
			Output:    output,
			Event:     event,
		})

		span.End()
		logger.Debug("Step completed", "state", state.Name, "event", event)

		// An end state always completes the execution, regardless of any
		// outgoing transitions it declares.
		if state.Kind == models.StateKindEnd {
			execution.Status = models.ExecutionStatusCompleted
			if err := e.saveExecution(ctx, execution); err != nil {
				return err
			}

			e.publish(ctx, execution.ID, &events.ExecutionCompleted{
				BaseEvent:  events.NewBaseEvent(events.ExecutionCompletedEvent, workflow.ID, execution.ID),
				FinalState: state.Name,
				Steps:      len(execution.History),
			})

			logger.Info("Workflow execution completed", "final_state", state.Name)

			return nil
		}

		next := e.selectTransition(state, event, execution.Context)
		if next == nil {
			if err := e.saveExecution(ctx, execution); err != nil {
				return err
			}

			e.publish(ctx, execution.ID, &events.ExecutionPaused{
				BaseEvent: events.NewBaseEvent(events.ExecutionPausedEvent, workflow.ID, execution.ID),
				StateName: state.Name,
			})

			logger.Info("Workflow execution paused, no matching transition",
				"state", state.Name, "event", event)

			return nil
		}

		execution.CurrentState = next.Target
		if err := e.saveExecution(ctx, execution); err != nil {
			return err
		}
	}
}

// dispatch runs one state and returns its output delta and emitted event.
func (e *Executor) dispatch(ctx context.Context, state *models.WorkflowState, execution *models.WorkflowExecution) (models.Context, string, error) {
	switch state.Kind {
	case models.StateKindAgent:
		return e.dispatchAgent(ctx, state, execution)

	case models.StateKindCondition:
		result := e.evaluateCondition(state.Condition, execution.Context)

		event := models.EventFalse
		if result {
			event = models.EventTrue
		}

		return models.Context{state.Name + conditionResultSuffix: result}, event, nil

	case models.StateKindAction:
		// Reserved extension point for deterministic side effects.
		return models.Context{}, models.EventSuccess, nil

	case models.StateKindEnd:
		return models.Context{}, models.EventComplete, nil

	default:
		return nil, "", fmt.Errorf("unknown state kind %q in state %q", state.Kind, state.Name)
	}
}

func (e *Executor) dispatchAgent(ctx context.Context, state *models.WorkflowState, execution *models.WorkflowExecution) (models.Context, string, error) {
	if state.AgentID == "" {
		return nil, "", fmt.Errorf("agent state %q has no agent id", state.Name)
	}

	prompt := template.Render(state.Prompt, execution.Context)

	output := models.Context{}

	// Repeated visits to states of the same agent continue one conversation.
	conversationKey := conversationKeyPrefix + state.AgentID

	conversationID, ok := execution.Context[conversationKey].(string)
	if !ok || conversationID == "" {
		conversation := &models.Conversation{
			ID:        uuid.New().String(),
			AgentID:   state.AgentID,
			Title:     fmt.Sprintf("execution %s", execution.ID),
			CreatedAt: time.Now().UTC(),
		}

		if err := e.persistence.SaveConversation(ctx, conversation); err != nil {
			return nil, "", fmt.Errorf("failed to create conversation for agent %s: %w", state.AgentID, err)
		}

		conversationID = conversation.ID
		output[conversationKey] = conversationID
	}

	result, err := e.runner.SendMessage(ctx, conversationID, prompt)
	if err != nil {
		return nil, "", err
	}

	output[state.Name+responseKeySuffix] = result.Response
	output[lastResponseKey] = result.Response

	return output, models.EventSuccess, nil
}

// selectTransition scans the state's transitions in declared order and
// returns the first whose event tag matches the emitted event and whose
// guard, if any, evaluates true against the post-merge context.
func (e *Executor) selectTransition(state *models.WorkflowState, event string, ctx models.Context) *models.Transition {
	for i := range state.Transitions {
		transition := &state.Transitions[i]

		if !transition.Matches(event) {
			continue
		}

		if transition.Guard != "" && !e.evaluateCondition(transition.Guard, ctx) {
			continue
		}

		return transition
	}

	return nil
}

// evaluateCondition applies the fail-closed policy: a broken expression
// disables its transition (or resolves the condition false) instead of
// crashing the workflow.
func (e *Executor) evaluateCondition(expression string, ctx models.Context) bool {
	result, err := e.expressions.EvaluateBool(expression, ctx)
	if err != nil {
		e.logger.Warn("Condition evaluation failed, treating as false",
			"expression", expression, "error", err)

		return false
	}

	return result
}

// fail marks the execution failed, records the error on the record and in
// history, persists and publishes. The interpreter never retries a failed
// step; callers create a new execution or resume with patched context.
func (e *Executor) fail(ctx context.Context, execution *models.WorkflowExecution, stateName string, cause error) error {
	execution.Status = models.ExecutionStatusFailed
	execution.Error = cause.Error()
	execution.History = append(execution.History, models.HistoryEntry{
		StateName: stateName,
		Timestamp: time.Now().UTC(),
		Input:     execution.Context.Clone(),
		Error:     cause.Error(),
	})

	if err := e.saveExecution(ctx, execution); err != nil {
		return err
	}

	e.publish(ctx, execution.ID, &events.ExecutionFailed{
		BaseEvent: events.NewBaseEvent(events.ExecutionFailedEvent, execution.WorkflowID, execution.ID),
		StateName: stateName,
		Error:     cause.Error(),
	})

	return nil
}

func (e *Executor) saveExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	execution.UpdatedAt = time.Now().UTC()

	if err := e.persistence.SaveExecution(ctx, execution); err != nil {
		return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
	}

	return nil
}

func (e *Executor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.bus == nil {
		return
	}

	if err := e.bus.Publish(ctx, key, event); err != nil {
		e.logger.Warn("Failed to publish lifecycle event", "type", event.GetType(), "error", err)
	}
}
