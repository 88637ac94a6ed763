package services

import (
	"context"
	"fmt"

	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence"
	"github.com/prodflow/prodflow/pkg/workflow"
)

// Execution drives workflow executions through the interpreter.
type Execution struct {
	persistence persistence.Persistence
	executor    *workflow.Executor
}

// NewExecution creates a new execution service.
func NewExecution(persistence persistence.Persistence, executor *workflow.Executor) *Execution {
	return &Execution{
		persistence: persistence,
		executor:    executor,
	}
}

// Start creates and runs a new execution of the workflow.
func (e *Execution) Start(ctx context.Context, workflowID string, initialContext models.Context) (*models.WorkflowExecution, error) {
	return e.executor.Start(ctx, workflowID, initialContext)
}

// FetchByID retrieves an execution by its ID.
func (e *Execution) FetchByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	return e.persistence.ExecutionByID(ctx, id)
}

// SendEvent resumes a paused execution with an external event and optional
// context data.
func (e *Execution) SendEvent(ctx context.Context, executionID, event string, data models.Context) (*models.WorkflowExecution, error) {
	if event == "" {
		return nil, fmt.Errorf("%w: execution %s", ErrEmptyEvent, executionID)
	}

	return e.executor.SendEvent(ctx, executionID, event, data)
}
