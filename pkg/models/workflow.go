// Package models defines the core domain models for workflow orchestration.
package models

import (
	"fmt"
	"time"
)

// StateKind identifies how the interpreter dispatches a workflow state.
type StateKind string

const (
	StateKindAgent     StateKind = "agent"     // Runs the conversational agent loop
	StateKindCondition StateKind = "condition" // Evaluates a boolean expression
	StateKindAction    StateKind = "action"    // Reserved for deterministic side effects
	StateKindEnd       StateKind = "end"       // Terminal state, completes the execution
)

// DefaultEvent is the transition event tag that matches any emitted event.
const DefaultEvent = "default"

// Events emitted by state dispatch.
const (
	EventSuccess  = "success"
	EventTrue     = "true"
	EventFalse    = "false"
	EventComplete = "complete"
)

// Transition is a directed edge out of a state. Event and Guard are both
// optional; an empty or "default" event matches any emitted event, and an
// empty guard always passes. Within a state, transitions are checked in
// declaration order and the first match wins.
type Transition struct {
	Event  string `json:"event,omitempty"`
	Guard  string `json:"guard,omitempty"`
	Target string `json:"target"        validate:"required"`
}

// Matches reports whether the transition's event tag matches the emitted
// event. Guard evaluation is the interpreter's concern.
func (t Transition) Matches(event string) bool {
	return t.Event == "" || t.Event == DefaultEvent || t.Event == event
}

// WorkflowState is a named node in a workflow graph. The kind-specific
// payload fields are only meaningful for their kind: AgentID and Prompt for
// agent states, Condition for condition states.
type WorkflowState struct {
	Name        string       `json:"name"                  validate:"required"`
	Kind        StateKind    `json:"kind"                  validate:"required,oneof=agent condition action end"`
	AgentID     string       `json:"agent_id,omitempty"`
	Prompt      string       `json:"prompt,omitempty"`
	Condition   string       `json:"condition,omitempty"`
	Transitions []Transition `json:"transitions,omitempty"`
}

// WorkflowDefinition is an immutable, validated graph of named states.
// New graphs are new definitions; a definition is never edited in place.
type WorkflowDefinition struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"          validate:"required,min=3"`
	Description  string          `json:"description,omitempty"`
	InitialState string          `json:"initial_state" validate:"required"`
	States       []WorkflowState `json:"states"        validate:"required,min=1,dive"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ValidationError reports a broken reference inside a proposed workflow
// definition.
type ValidationError struct {
	Reference string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("workflow validation failed: %s (reference %q)", e.Message, e.Reference)
}

// NewWorkflowDefinition validates referential integrity of the proposed graph
// and returns the definition. The initial state must exist among the states
// and every transition target must name an existing state. Cycles and
// unreachable states are legal.
func NewWorkflowDefinition(name, description, initialState string, states []WorkflowState) (*WorkflowDefinition, error) {
	known := make(map[string]struct{}, len(states))
	for _, state := range states {
		known[state.Name] = struct{}{}
	}

	if _, ok := known[initialState]; !ok {
		return nil, &ValidationError{
			Reference: initialState,
			Message:   "initial state does not exist",
		}
	}

	for _, state := range states {
		for _, transition := range state.Transitions {
			if _, ok := known[transition.Target]; !ok {
				return nil, &ValidationError{
					Reference: transition.Target,
					Message:   fmt.Sprintf("transition target from state %q does not exist", state.Name),
				}
			}
		}
	}

	return &WorkflowDefinition{
		Name:         name,
		Description:  description,
		InitialState: initialState,
		States:       states,
	}, nil
}

// StateByName looks up a state by its unique name.
func (w *WorkflowDefinition) StateByName(name string) (*WorkflowState, bool) {
	for i := range w.States {
		if w.States[i].Name == name {
			return &w.States[i], true
		}
	}

	return nil, false
}
