package file

import (
	"context"
	"testing"
	"time"

	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func TestHealthCheck(t *testing.T) {
	p := newTestPersistence(t)
	require.NoError(t, p.HealthCheck(context.Background()))

	missing := NewPersistence("/nonexistent/prodflow-test")
	assert.Error(t, missing.HealthCheck(context.Background()))
}

func TestWorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	workflow := &models.WorkflowDefinition{
		ID:           "wf-1",
		Name:         "PRD Flow",
		InitialState: "Start",
		States: []models.WorkflowState{
			{Name: "Start", Kind: models.StateKindAgent, AgentID: "agent-1", Transitions: []models.Transition{
				{Event: models.EventSuccess, Target: "Done"},
			}},
			{Name: "Done", Kind: models.StateKindEnd},
		},
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	loaded, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	assert.Equal(t, workflow.InitialState, loaded.InitialState)
	require.Len(t, loaded.States, 2)
	assert.Equal(t, models.StateKindAgent, loaded.States[0].Kind)

	all, err := p.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, p.DeleteWorkflow(ctx, "wf-1"))

	_, err = p.WorkflowByID(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflows_EmptyRoot(t *testing.T) {
	p := newTestPersistence(t)

	workflows, err := p.Workflows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestExecutionRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	execution := &models.WorkflowExecution{
		ID:           "exec-1",
		WorkflowID:   "wf-1",
		CurrentState: "Start",
		Status:       models.ExecutionStatusRunning,
		Context:      models.Context{"score": float64(80)},
		History: []models.HistoryEntry{
			{StateName: "Start", Input: models.Context{}, Output: models.Context{"x": float64(1)}},
		},
	}

	require.NoError(t, p.SaveExecution(ctx, execution))

	loaded, err := p.ExecutionByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, loaded.Status)
	assert.Equal(t, float64(80), loaded.Context["score"])
	require.Len(t, loaded.History, 1)
	assert.Equal(t, "Start", loaded.History[0].StateName)

	_, err = p.ExecutionByID(ctx, "missing")
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestAgentRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	agent := &models.Agent{
		ID:           "agent-1",
		Name:         "PRD Writer",
		SystemPrompt: "You write product documents.",
		Model:        "gpt-4o",
		Tools: []models.ToolDefinition{
			{Name: "calculator", Description: "Evaluates arithmetic"},
		},
	}

	require.NoError(t, p.SaveAgent(ctx, agent))

	loaded, err := p.AgentByID(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "PRD Writer", loaded.Name)
	require.Len(t, loaded.Tools, 1)

	agents, err := p.Agents(ctx)
	require.NoError(t, err)
	assert.Len(t, agents, 1)

	_, err = p.AgentByID(ctx, "missing")
	assert.True(t, persistence.IsAgentNotFound(err))
}

func TestConversationMessagesKeepAppendOrder(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	conversation := &models.Conversation{ID: "conv-1", AgentID: "agent-1"}
	require.NoError(t, p.SaveConversation(ctx, conversation))

	roles := []models.MessageRole{models.RoleUser, models.RoleAssistant, models.RoleTool}
	for i, role := range roles {
		require.NoError(t, p.AppendMessage(ctx, &models.Message{
			ID:             "msg-" + string(rune('a'+i)),
			ConversationID: "conv-1",
			Role:           role,
			Content:        "content",
		}))
	}

	messages, err := p.Messages(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 3)

	for i, role := range roles {
		assert.Equal(t, role, messages[i].Role)
	}
}

func TestSaveConversation_PreservesMessages(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistence(t)

	conversation := &models.Conversation{ID: "conv-1", AgentID: "agent-1"}
	require.NoError(t, p.SaveConversation(ctx, conversation))
	require.NoError(t, p.AppendMessage(ctx, &models.Message{
		ID: "msg-1", ConversationID: "conv-1", Role: models.RoleUser, Content: "hi",
	}))

	conversation.Title = "Pricing discussion"
	require.NoError(t, p.SaveConversation(ctx, conversation))

	messages, err := p.Messages(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	loaded, err := p.ConversationByID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "Pricing discussion", loaded.Title)
}

func TestAppendMessage_UnknownConversation(t *testing.T) {
	p := newTestPersistence(t)

	err := p.AppendMessage(context.Background(), &models.Message{
		ID: "msg-1", ConversationID: "missing", Role: models.RoleUser,
	})
	assert.True(t, persistence.IsConversationNotFound(err))
}
