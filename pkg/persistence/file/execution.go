package file

import (
	"context"

	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence"
)

func (p *Persistence) SaveExecution(_ context.Context, execution *models.WorkflowExecution) error {
	return p.write(executionsDir, execution.ID, execution)
}

func (p *Persistence) ExecutionByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	var execution models.WorkflowExecution
	if err := p.read(executionsDir, id, &execution, persistence.ErrExecutionNotFound); err != nil {
		return nil, err
	}

	return &execution, nil
}
