// Package redis provides redis-backed persistence for workflows, executions,
// agents and conversations. Entities are JSON strings under namespaced keys;
// conversation messages live in a list so appends keep creation order.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "prodflow"

// Persistence implements persistence.Persistence on a redis server.
type Persistence struct {
	client *redis.Client
}

// NewPersistence creates a redis persistence from a redis:// URL.
func NewPersistence(url string) (*Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &Persistence{client: redis.NewClient(opts)}, nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func entityKey(kind, id string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, id)
}

func messagesKey(conversationID string) string {
	return fmt.Sprintf("%s:messages:%s", keyPrefix, conversationID)
}

func (p *Persistence) set(ctx context.Context, kind, id string, entity any) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}

	return p.client.Set(ctx, entityKey(kind, id), data, 0).Err()
}

func (p *Persistence) get(ctx context.Context, kind, id string, entity any, notFound error) error {
	data, err := p.client.Get(ctx, entityKey(kind, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}

		return fmt.Errorf("failed to get %s %s: %w", kind, id, err)
	}

	return json.Unmarshal(data, entity)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.WorkflowDefinition) error {
	return p.set(ctx, "workflow", workflow.ID, workflow)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	var workflow models.WorkflowDefinition
	if err := p.get(ctx, "workflow", id, &workflow, persistence.ErrWorkflowNotFound); err != nil {
		return nil, err
	}

	return &workflow, nil
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	keys, err := p.client.Keys(ctx, entityKey("workflow", "*")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow keys: %w", err)
	}

	workflows := make([]*models.WorkflowDefinition, 0, len(keys))

	for _, key := range keys {
		data, err := p.client.Get(ctx, key).Bytes()
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", key, err)
		}

		var workflow models.WorkflowDefinition
		if err := json.Unmarshal(data, &workflow); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
		}

		workflows = append(workflows, &workflow)
	}

	return workflows, nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	removed, err := p.client.Del(ctx, entityKey("workflow", id)).Result()
	if err != nil {
		return err
	}

	if removed == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

func (p *Persistence) SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	return p.set(ctx, "execution", execution.ID, execution)
}

func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	var execution models.WorkflowExecution
	if err := p.get(ctx, "execution", id, &execution, persistence.ErrExecutionNotFound); err != nil {
		return nil, err
	}

	return &execution, nil
}

func (p *Persistence) SaveAgent(ctx context.Context, agent *models.Agent) error {
	return p.set(ctx, "agent", agent.ID, agent)
}

func (p *Persistence) AgentByID(ctx context.Context, id string) (*models.Agent, error) {
	var agent models.Agent
	if err := p.get(ctx, "agent", id, &agent, persistence.ErrAgentNotFound); err != nil {
		return nil, err
	}

	return &agent, nil
}

func (p *Persistence) Agents(ctx context.Context) ([]*models.Agent, error) {
	keys, err := p.client.Keys(ctx, entityKey("agent", "*")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list agent keys: %w", err)
	}

	agents := make([]*models.Agent, 0, len(keys))

	for _, key := range keys {
		data, err := p.client.Get(ctx, key).Bytes()
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", key, err)
		}

		var agent models.Agent
		if err := json.Unmarshal(data, &agent); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
		}

		agents = append(agents, &agent)
	}

	return agents, nil
}

func (p *Persistence) SaveConversation(ctx context.Context, conversation *models.Conversation) error {
	return p.set(ctx, "conversation", conversation.ID, conversation)
}

func (p *Persistence) ConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := p.get(ctx, "conversation", id, &conversation, persistence.ErrConversationNotFound); err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (p *Persistence) AppendMessage(ctx context.Context, message *models.Message) error {
	if _, err := p.ConversationByID(ctx, message.ConversationID); err != nil {
		return err
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", message.ID, err)
	}

	return p.client.RPush(ctx, messagesKey(message.ConversationID), data).Err()
}

func (p *Persistence) Messages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	if _, err := p.ConversationByID(ctx, conversationID); err != nil {
		return nil, err
	}

	entries, err := p.client.LRange(ctx, messagesKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for %s: %w", conversationID, err)
	}

	messages := make([]*models.Message, 0, len(entries))

	for _, entry := range entries {
		var message models.Message
		if err := json.Unmarshal([]byte(entry), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}

		messages = append(messages, &message)
	}

	return messages, nil
}

var _ persistence.Persistence = (*Persistence)(nil)
