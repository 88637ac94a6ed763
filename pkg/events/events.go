// Package events defines event types for execution lifecycle notifications.
package events

import (
	"time"

	"github.com/prodflow/prodflow/pkg/models"
)

type EventType string

// Topic carries all execution lifecycle events.
const Topic = "prodflow.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "workflow.execution.started"
	ExecutionCompletedEvent EventType = "workflow.execution.completed"
	ExecutionFailedEvent    EventType = "workflow.execution.failed"
	ExecutionPausedEvent    EventType = "workflow.execution.paused"
	ExecutionResumedEvent   EventType = "workflow.execution.resumed"
)

type BaseEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	WorkflowID  string    `json:"workflow_id"`
	ExecutionID string    `json:"execution_id"`
}

func (e BaseEvent) GetType() EventType {
	return e.Type
}

func (e BaseEvent) GetWorkflowID() string {
	return e.WorkflowID
}

func (e BaseEvent) GetExecutionID() string {
	return e.ExecutionID
}

func NewBaseEvent(eventType EventType, workflowID, executionID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		WorkflowID:  workflowID,
		ExecutionID: executionID,
	}
}

type ExecutionStarted struct {
	BaseEvent

	InitialContext models.Context `json:"initial_context,omitempty"`
}

type ExecutionCompleted struct {
	BaseEvent

	FinalState string `json:"final_state"`
	Steps      int    `json:"steps"`
}

type ExecutionFailed struct {
	BaseEvent

	StateName string `json:"state_name"`
	Error     string `json:"error"`
}

type ExecutionPaused struct {
	BaseEvent

	StateName string `json:"state_name"`
}

type ExecutionResumed struct {
	BaseEvent

	StateName string `json:"state_name"`
	Event     string `json:"event"`
}
