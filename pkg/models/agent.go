package models

import "time"

// ToolDefinition declares a capability an agent may request. Parameters is a
// JSON Schema object describing the structured arguments the tool accepts.
type ToolDefinition struct {
	Name        string         `json:"name"        validate:"required"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Agent is a named system prompt, model identifier and declared tool set
// used to drive a conversational loop. System prompt and model are mutable,
// e.g. updated by an external prompt-optimization process, but a single agent
// record is read, not written, during one conversation turn.
type Agent struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"          validate:"required,min=3"`
	Description  string           `json:"description,omitempty"`
	SystemPrompt string           `json:"system_prompt" validate:"required"`
	Model        string           `json:"model"         validate:"required"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// PromptVersion is an alternate system prompt/model pair served by an A/B
// prompt selector for one-shot agent executions.
type PromptVersion struct {
	ID           string `json:"id"`
	AgentID      string `json:"agent_id"`
	VariantID    string `json:"variant_id"`
	SystemPrompt string `json:"system_prompt"`
	Model        string `json:"model,omitempty"`
}
