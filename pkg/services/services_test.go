package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/prodflow/prodflow/pkg/agent"
	"github.com/prodflow/prodflow/pkg/gateway"
	"github.com/prodflow/prodflow/pkg/mocks"
	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence"
	"github.com/prodflow/prodflow/pkg/persistence/file"
	"github.com/prodflow/prodflow/pkg/tools"
	"github.com/prodflow/prodflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func linearStates() []models.WorkflowState {
	return []models.WorkflowState{
		{Name: "Start", Kind: models.StateKindAction, Transitions: []models.Transition{
			{Target: "Done"},
		}},
		{Name: "Done", Kind: models.StateKindEnd},
	}
}

func TestWorkflowService_CreateAndFetch(t *testing.T) {
	ctx := context.Background()
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	created, err := service.Create(ctx, "release-flow", "ships a release", "Start", linearStates())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := service.FetchByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "release-flow", fetched.Name)

	all, err := service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestWorkflowService_CreateRejectsBrokenGraph(t *testing.T) {
	ctx := context.Background()
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	_, err := service.Create(ctx, "broken-flow", "", "Missing", linearStates())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	// Nothing was persisted for the rejected graph.
	all, err := service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestWorkflowService_DeleteUnknown(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	err := service.Delete(context.Background(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
	assert.True(t, IsNotFoundError(err))
}

func TestExecutionService_StartAndSendEvent(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())

	workflowService := NewWorkflow(store)
	created, err := workflowService.Create(ctx, "wait-flow", "", "Wait", []models.WorkflowState{
		{Name: "Wait", Kind: models.StateKindAction, Transitions: []models.Transition{
			{Event: models.EventSuccess, Guard: "last_event == 'go'", Target: "Done"},
		}},
		{Name: "Done", Kind: models.StateKindEnd},
	})
	require.NoError(t, err)

	runner := agent.NewRunner(testLogger(), store, mocks.NewStubGateway(), tools.NewRegistry(testLogger()))
	executor := workflow.NewExecutor(testLogger(), store, runner)
	service := NewExecution(store, executor)

	execution, err := service.Start(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, execution.Status)

	_, err = service.SendEvent(ctx, execution.ID, "", nil)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	resumed, err := service.SendEvent(ctx, execution.ID, "go", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, resumed.Status)

	_, err = service.SendEvent(ctx, execution.ID, "go", nil)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestAgentService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())

	stub := mocks.NewStubGateway(&gateway.ChatResponse{Content: "hello"})
	runner := agent.NewRunner(testLogger(), store, stub, tools.NewRegistry(testLogger()))
	service := NewAgent(store, runner)

	created, err := service.Create(ctx, &models.Agent{
		Name:         "Support Agent",
		SystemPrompt: "You answer support questions.",
		Model:        "gpt-4o",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	updated, err := service.Update(ctx, created.ID, &models.Agent{
		Name:         "Support Agent",
		SystemPrompt: "You answer support questions briefly.",
		Model:        "gpt-4o",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	conversation, err := service.CreateConversation(ctx, created.ID, "ticket 42")
	require.NoError(t, err)

	result, err := service.SendMessage(ctx, conversation.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Response)

	messages, err := service.Messages(ctx, conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)

	// The updated prompt is used on the next turn.
	assert.Equal(t, "You answer support questions briefly.", stub.Requests[0].Messages[0].Content)
}

func TestAgentService_Validation(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())

	runner := agent.NewRunner(testLogger(), store, mocks.NewStubGateway(), tools.NewRegistry(testLogger()))
	service := NewAgent(store, runner)

	_, err := service.CreateConversation(ctx, "missing", "")
	assert.True(t, persistence.IsAgentNotFound(err))

	_, err = service.SendMessage(ctx, "conv", "   ")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = service.Messages(ctx, "missing")
	assert.True(t, persistence.IsConversationNotFound(err))

	_, err = service.Execute(ctx, "agent", "")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}
