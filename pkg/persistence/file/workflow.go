package file

import (
	"context"

	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence"
)

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.WorkflowDefinition) error {
	return p.write(workflowsDir, workflow.ID, workflow)
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	var workflow models.WorkflowDefinition
	if err := p.read(workflowsDir, id, &workflow, persistence.ErrWorkflowNotFound); err != nil {
		return nil, err
	}

	return &workflow, nil
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	ids, err := p.ids(workflowsDir)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.WorkflowDefinition, 0, len(ids))

	for _, id := range ids {
		workflow, err := p.WorkflowByID(ctx, id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	return p.remove(workflowsDir, id, persistence.ErrWorkflowNotFound)
}
