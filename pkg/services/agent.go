package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prodflow/prodflow/pkg/agent"
	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence"
)

// Agent manages agent records and their conversations.
type Agent struct {
	persistence persistence.Persistence
	runner      *agent.Runner
}

// NewAgent creates a new agent service.
func NewAgent(persistence persistence.Persistence, runner *agent.Runner) *Agent {
	return &Agent{
		persistence: persistence,
		runner:      runner,
	}
}

// Create stores a new agent record.
func (a *Agent) Create(ctx context.Context, record *models.Agent) (*models.Agent, error) {
	now := time.Now().UTC()
	record.ID = uuid.New().String()
	record.CreatedAt = now
	record.UpdatedAt = now

	if err := a.persistence.SaveAgent(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return record, nil
}

// Update modifies an existing agent. System prompt and model updates take
// effect on the next turn of ongoing conversations.
func (a *Agent) Update(ctx context.Context, agentID string, record *models.Agent) (*models.Agent, error) {
	existing, err := a.persistence.AgentByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	record.ID = agentID
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = time.Now().UTC()

	if err := a.persistence.SaveAgent(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}

	return record, nil
}

// FetchByID retrieves an agent by its ID.
func (a *Agent) FetchByID(ctx context.Context, id string) (*models.Agent, error) {
	return a.persistence.AgentByID(ctx, id)
}

// List retrieves all agents.
func (a *Agent) List(ctx context.Context) ([]*models.Agent, error) {
	return a.persistence.Agents(ctx)
}

// CreateConversation opens a new conversation with the agent.
func (a *Agent) CreateConversation(ctx context.Context, agentID, title string) (*models.Conversation, error) {
	if _, err := a.persistence.AgentByID(ctx, agentID); err != nil {
		return nil, err
	}

	conversation := &models.Conversation{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}

	if err := a.persistence.SaveConversation(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return conversation, nil
}

// SendMessage runs one conversational turn of the agent loop.
func (a *Agent) SendMessage(ctx context.Context, conversationID, content string) (*agent.SendResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: conversation %s", ErrEmptyMessage, conversationID)
	}

	return a.runner.SendMessage(ctx, conversationID, content)
}

// Messages retrieves the conversation's message log in creation order.
func (a *Agent) Messages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	if _, err := a.persistence.ConversationByID(ctx, conversationID); err != nil {
		return nil, err
	}

	return a.persistence.Messages(ctx, conversationID)
}

// Execute runs the agent once against a single input, outside any
// conversation.
func (a *Agent) Execute(ctx context.Context, agentID, input string) (*agent.ExecuteResult, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%w: agent %s", ErrEmptyMessage, agentID)
	}

	return a.runner.ExecuteAgent(ctx, agentID, input)
}
