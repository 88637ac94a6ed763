// Package persistence provides the data storage abstraction consumed by the
// workflow interpreter and the agent loop.
package persistence

import (
	"context"

	"github.com/prodflow/prodflow/pkg/models"
)

// WorkflowRepository stores immutable workflow definitions.
type WorkflowRepository interface {
	SaveWorkflow(ctx context.Context, workflow *models.WorkflowDefinition) error
	WorkflowByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	Workflows(ctx context.Context) ([]*models.WorkflowDefinition, error)
	DeleteWorkflow(ctx context.Context, id string) error
}

// ExecutionRepository stores workflow executions. SaveExecution writes the
// full record back and must be durable before the interpreter takes its next
// step; step N's persisted state is always fully written before step N+1
// begins.
type ExecutionRepository interface {
	SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error
	ExecutionByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
}

// AgentRepository stores agent records.
type AgentRepository interface {
	SaveAgent(ctx context.Context, agent *models.Agent) error
	AgentByID(ctx context.Context, id string) (*models.Agent, error)
	Agents(ctx context.Context) ([]*models.Agent, error)
}

// ConversationRepository stores conversations and their append-only message
// logs. Messages returns messages in creation order, which is the order the
// agent loop replays to the model gateway.
type ConversationRepository interface {
	SaveConversation(ctx context.Context, conversation *models.Conversation) error
	ConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, message *models.Message) error
	Messages(ctx context.Context, conversationID string) ([]*models.Message, error)
}

// Persistence aggregates all repositories behind a single provider.
type Persistence interface {
	WorkflowRepository
	ExecutionRepository
	AgentRepository
	ConversationRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
