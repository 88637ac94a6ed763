package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/prodflow/prodflow/pkg/agent"
	"github.com/prodflow/prodflow/pkg/gateway"
	"github.com/prodflow/prodflow/pkg/mocks"
	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence/file"
	"github.com/prodflow/prodflow/pkg/services"
	"github.com/prodflow/prodflow/pkg/tools"
	"github.com/prodflow/prodflow/pkg/web"
	"github.com/prodflow/prodflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, responses ...*gateway.ChatResponse) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	persistence := file.NewPersistence(t.TempDir())
	stub := mocks.NewStubGateway(responses...)
	runner := agent.NewRunner(logger, persistence, stub, tools.NewRegistry(logger))
	executor := workflow.NewExecutor(logger, persistence, runner)

	handlers := web.NewAPIHandlers(
		services.NewWorkflow(persistence),
		services.NewExecution(persistence, executor),
		services.NewAgent(persistence, runner),
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/executions", handlers.StartExecution)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Post("/:id/events", handlers.SendExecutionEvent)

	a := app.Group("/agents")
	a.Get("/", handlers.GetAgents)
	a.Post("/", handlers.CreateAgent)
	a.Get("/:id", handlers.GetAgent)
	a.Put("/:id", handlers.UpdateAgent)
	a.Post("/:id/execute", handlers.ExecuteAgent)
	a.Post("/:id/conversations", handlers.CreateConversation)

	co := app.Group("/conversations")
	co.Post("/:id/messages", handlers.SendMessage)
	co.Get("/:id/messages", handlers.GetMessages)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Buffer
	if payload != nil {
		body, err := json.Marshal(payload)
		require.NoError(t, err)

		reader = bytes.NewBuffer(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, body
}

func simpleWorkflowRequest() web.CreateWorkflowRequest {
	return web.CreateWorkflowRequest{
		Name:         "Approval Flow",
		Description:  "waits for an approval event",
		InitialState: "Wait",
		States: []models.WorkflowState{
			{Name: "Wait", Kind: models.StateKindAction, Transitions: []models.Transition{
				{Event: models.EventSuccess, Guard: "last_event == 'approved'", Target: "Done"},
			}},
			{Name: "Done", Kind: models.StateKindEnd},
		},
	}
}

func TestCreateWorkflow(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows", simpleWorkflowRequest())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.WorkflowDefinition
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Approval Flow", created.Name)

	resp, _ = doJSON(t, app, http.MethodGet, "/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateWorkflow_ValidationErrors(t *testing.T) {
	app := setupTestApp(t)

	// Missing name.
	req := simpleWorkflowRequest()
	req.Name = ""
	resp, _ := doJSON(t, app, http.MethodPost, "/workflows", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Broken graph reference.
	req = simpleWorkflowRequest()
	req.InitialState = "Missing"
	resp, body := doJSON(t, app, http.MethodPost, "/workflows", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "initial state does not exist")
}

func TestGetWorkflow_NotFound(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/workflows/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteWorkflow(t *testing.T) {
	app := setupTestApp(t)

	_, body := doJSON(t, app, http.MethodPost, "/workflows", simpleWorkflowRequest())

	var created models.WorkflowDefinition
	require.NoError(t, json.Unmarshal(body, &created))

	resp, _ := doJSON(t, app, http.MethodDelete, "/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExecutionLifecycleOverHTTP(t *testing.T) {
	app := setupTestApp(t)

	_, body := doJSON(t, app, http.MethodPost, "/workflows", simpleWorkflowRequest())

	var created models.WorkflowDefinition
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/executions",
		web.StartExecutionRequest{Context: models.Context{"ticket": "T-1"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var execution models.WorkflowExecution
	require.NoError(t, json.Unmarshal(body, &execution))
	assert.Equal(t, models.ExecutionStatusRunning, execution.Status)
	assert.Equal(t, "Wait", execution.CurrentState)

	// Missing event name is rejected before touching the interpreter.
	resp, _ = doJSON(t, app, http.MethodPost, "/executions/"+execution.ID+"/events",
		web.SendEventRequest{Data: models.Context{"x": 1}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/executions/"+execution.ID+"/events",
		web.SendEventRequest{Event: "approved", Data: models.Context{"x": 1}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var resumed models.WorkflowExecution
	require.NoError(t, json.Unmarshal(body, &resumed))
	assert.Equal(t, models.ExecutionStatusCompleted, resumed.Status)
	assert.Equal(t, "Done", resumed.CurrentState)

	// Events to a finished execution conflict.
	resp, _ = doJSON(t, app, http.MethodPost, "/executions/"+execution.ID+"/events",
		web.SendEventRequest{Event: "approved"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/executions/"+execution.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &resumed))
	assert.Equal(t, models.ExecutionStatusCompleted, resumed.Status)
}

func TestAgentConversationOverHTTP(t *testing.T) {
	app := setupTestApp(t, &gateway.ChatResponse{Content: "Here you go."})

	resp, body := doJSON(t, app, http.MethodPost, "/agents", web.CreateAgentRequest{
		Name:         "Helper",
		SystemPrompt: "You help.",
		Model:        "gpt-4o",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Agent
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body = doJSON(t, app, http.MethodPost, "/agents/"+created.ID+"/conversations",
		web.CreateConversationRequest{Title: "first chat"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var conversation models.Conversation
	require.NoError(t, json.Unmarshal(body, &conversation))

	resp, body = doJSON(t, app, http.MethodPost, "/conversations/"+conversation.ID+"/messages",
		web.SendMessageRequest{Content: "help me"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result agent.SendResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "Here you go.", result.Response)

	resp, body = doJSON(t, app, http.MethodGet, "/conversations/"+conversation.ID+"/messages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Messages []*models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	require.Len(t, listing.Messages, 2)
	assert.Equal(t, models.RoleUser, listing.Messages[0].Role)
	assert.Equal(t, models.RoleAssistant, listing.Messages[1].Role)
}

func TestExecuteAgentOverHTTP(t *testing.T) {
	app := setupTestApp(t, &gateway.ChatResponse{
		Content: "one-shot answer",
		Usage:   gateway.Usage{TotalTokens: 7},
	})

	_, body := doJSON(t, app, http.MethodPost, "/agents", web.CreateAgentRequest{
		Name:         "Helper",
		SystemPrompt: "You help.",
		Model:        "gpt-4o",
	})

	var created models.Agent
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body := doJSON(t, app, http.MethodPost, "/agents/"+created.ID+"/execute",
		web.ExecuteAgentRequest{Input: "question"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result agent.ExecuteResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "one-shot answer", result.Response)
	assert.Equal(t, 7, result.Usage.TotalTokens)

	resp, _ = doJSON(t, app, http.MethodPost, "/agents/missing/execute",
		web.ExecuteAgentRequest{Input: "question"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
