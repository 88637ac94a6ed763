package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence"
)

type Workflow struct {
	persistence persistence.Persistence
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence) *Workflow {
	return &Workflow{
		persistence: persistence,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create validates the proposed state graph and stores it as a new immutable
// definition. Graph changes always produce a new definition.
func (w *Workflow) Create(ctx context.Context, name, description, initialState string, states []models.WorkflowState) (*models.WorkflowDefinition, error) {
	definition, err := models.NewWorkflowDefinition(name, description, initialState, states)
	if err != nil {
		return nil, err
	}

	definition.ID = uuid.New().String()
	definition.CreatedAt = time.Now().UTC()

	if err := w.persistence.SaveWorkflow(ctx, definition); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return definition, nil
}

// FetchByID retrieves a workflow definition by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return w.persistence.WorkflowByID(ctx, id)
}

// List retrieves all workflow definitions.
func (w *Workflow) List(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	return w.persistence.Workflows(ctx)
}

// Delete removes a workflow definition by its ID.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	if _, err := w.persistence.WorkflowByID(ctx, id); err != nil {
		return err
	}

	if err := w.persistence.DeleteWorkflow(ctx, id); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}
