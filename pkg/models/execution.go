package models

import (
	"time"
)

// ExecutionStatus represents the lifecycle state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// Context is the open-ended key-value state threaded through an execution.
// It is only ever extended or overwritten key-by-key, never replaced
// wholesale.
type Context map[string]any

// Merge copies every key of delta into the context, overwriting existing
// keys. A nil delta is a no-op.
func (c Context) Merge(delta Context) {
	for key, value := range delta {
		c[key] = value
	}
}

// Clone returns a shallow copy of the context, used for history snapshots.
func (c Context) Clone() Context {
	clone := make(Context, len(c))
	for key, value := range c {
		clone[key] = value
	}

	return clone
}

// HistoryEntry is one audit record per interpreted step. Entries are
// append-only and never mutated once written.
type HistoryEntry struct {
	StateName string    `json:"state_name"`
	Timestamp time.Time `json:"timestamp"`
	Input     Context   `json:"input"`
	Output    Context   `json:"output,omitempty"`
	Event     string    `json:"event,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// WorkflowExecution is one running, completed or failed instance of a
// workflow definition. It owns its context and history exclusively and is
// mutated only by the execution interpreter.
type WorkflowExecution struct {
	ID           string          `json:"id"`
	WorkflowID   string          `json:"workflow_id"`
	CurrentState string          `json:"current_state"`
	Status       ExecutionStatus `json:"status"`
	Context      Context         `json:"context"`
	History      []HistoryEntry  `json:"history"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsTerminal reports whether the execution can take no further steps.
func (e *WorkflowExecution) IsTerminal() bool {
	return e.Status != ExecutionStatusRunning
}
