// Package web provides HTTP request and response types for the orchestration API.
package web

import "github.com/prodflow/prodflow/pkg/models"

// CreateWorkflowRequest represents the request body for creating a new
// workflow definition. The state graph is submitted whole; definitions are
// immutable once created.
type CreateWorkflowRequest struct {
	Name         string                 `json:"name"          validate:"required,min=3"`
	Description  string                 `json:"description"`
	InitialState string                 `json:"initial_state" validate:"required"`
	States       []models.WorkflowState `json:"states"        validate:"required,min=1,dive"`
}

// StartExecutionRequest represents the request body for starting a workflow
// execution.
type StartExecutionRequest struct {
	Context models.Context `json:"context"`
}

// SendEventRequest represents the request body for resuming a paused
// execution.
type SendEventRequest struct {
	Event string         `json:"event" validate:"required"`
	Data  models.Context `json:"data"`
}

// CreateAgentRequest represents the request body for creating a new agent.
type CreateAgentRequest struct {
	Name         string                  `json:"name"          validate:"required,min=3"`
	Description  string                  `json:"description"`
	SystemPrompt string                  `json:"system_prompt" validate:"required"`
	Model        string                  `json:"model"         validate:"required"`
	Tools        []models.ToolDefinition `json:"tools,omitempty"`
}

// UpdateAgentRequest represents the request body for updating an existing
// agent. Prompt and model changes take effect on the next conversation turn.
type UpdateAgentRequest struct {
	Name         string                  `json:"name"          validate:"required,min=3"`
	Description  string                  `json:"description"`
	SystemPrompt string                  `json:"system_prompt" validate:"required"`
	Model        string                  `json:"model"         validate:"required"`
	Tools        []models.ToolDefinition `json:"tools,omitempty"`
}

// CreateConversationRequest represents the request body for opening a
// conversation with an agent.
type CreateConversationRequest struct {
	Title string `json:"title"`
}

// SendMessageRequest represents the request body for one conversational turn.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// ExecuteAgentRequest represents the request body for a one-shot agent
// execution.
type ExecuteAgentRequest struct {
	Input string `json:"input" validate:"required"`
}
