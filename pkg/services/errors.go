// Package services provides the application services behind the HTTP API.
package services

import (
	"errors"

	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence"
	"github.com/prodflow/prodflow/pkg/workflow"
)

// Client errors mapped to 4xx responses by the web layer.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrEmptyMessage   = errors.New("message content cannot be empty")
	ErrEmptyEvent     = errors.New("event name cannot be empty")
)

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		return true
	}

	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrEmptyEvent)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, workflow.ErrExecutionFinished)
}

// IsNotFoundError checks if an error should map to HTTP 404.
func IsNotFoundError(err error) bool {
	return persistence.IsWorkflowNotFound(err) ||
		persistence.IsExecutionNotFound(err) ||
		persistence.IsAgentNotFound(err) ||
		persistence.IsConversationNotFound(err)
}
