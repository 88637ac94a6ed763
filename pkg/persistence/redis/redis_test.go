package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests require a running redis; set REDIS_URL to enable them.
func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping redis integration tests")
	}

	p, err := NewPersistence(url)
	require.NoError(t, err)
	require.NoError(t, p.HealthCheck(context.Background()))

	return p
}

func TestNewPersistence_InvalidURL(t *testing.T) {
	_, err := NewPersistence("not-a-url")
	assert.Error(t, err)
}

func TestWorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	id := uuid.New().String()
	workflow := &models.WorkflowDefinition{
		ID:           id,
		Name:         "Redis Flow",
		InitialState: "Start",
		States: []models.WorkflowState{
			{Name: "Start", Kind: models.StateKindEnd},
		},
	}

	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	loaded, err := p.WorkflowByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Redis Flow", loaded.Name)

	require.NoError(t, p.DeleteWorkflow(ctx, id))

	_, err = p.WorkflowByID(ctx, id)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestConversationMessages(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	conversationID := uuid.New().String()
	require.NoError(t, p.SaveConversation(ctx, &models.Conversation{
		ID:      conversationID,
		AgentID: "agent-1",
	}))

	for _, role := range []models.MessageRole{models.RoleUser, models.RoleAssistant} {
		require.NoError(t, p.AppendMessage(ctx, &models.Message{
			ID:             uuid.New().String(),
			ConversationID: conversationID,
			Role:           role,
		}))
	}

	messages, err := p.Messages(ctx, conversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
}

func TestAppendMessage_UnknownConversation(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	err := p.AppendMessage(ctx, &models.Message{
		ID:             uuid.New().String(),
		ConversationID: "missing-" + uuid.New().String(),
		Role:           models.RoleUser,
	})
	assert.True(t, persistence.IsConversationNotFound(err))
}
