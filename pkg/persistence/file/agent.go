package file

import (
	"context"

	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence"
)

func (p *Persistence) SaveAgent(_ context.Context, agent *models.Agent) error {
	return p.write(agentsDir, agent.ID, agent)
}

func (p *Persistence) AgentByID(_ context.Context, id string) (*models.Agent, error) {
	var agent models.Agent
	if err := p.read(agentsDir, id, &agent, persistence.ErrAgentNotFound); err != nil {
		return nil, err
	}

	return &agent, nil
}

func (p *Persistence) Agents(ctx context.Context) ([]*models.Agent, error) {
	ids, err := p.ids(agentsDir)
	if err != nil {
		return nil, err
	}

	agents := make([]*models.Agent, 0, len(ids))

	for _, id := range ids {
		agent, err := p.AgentByID(ctx, id)
		if err != nil {
			return nil, err
		}

		agents = append(agents, agent)
	}

	return agents, nil
}
