package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/waypoint/internal/domain/project"
)

// Stable tool error codes.
const (
	CodeNotFound          = "NOT_FOUND"
	CodePermissionDenied  = "PERMISSION_DENIED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeDuplicateMember   = "DUPLICATE_MEMBER"
	CodeValidation        = "VALIDATION_ERROR"
	CodeArchived          = "ARCHIVED"
	CodeInternal          = "INTERNAL"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Errors without a domain
// kind map to INTERNAL with a generic message.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var transition *project.TransitionError
	switch {
	case errors.As(err, &transition):
		return &APIError{
			Code:         CodeInvalidTransition,
			Message:      err.Error(),
			Details:      map[string]any{"from": transition.From, "allowed": project.NextStatuses(transition.From)},
			RecoveryHint: "Call get_project and pick a status from the allowed list",
		}
	case errors.Is(err, project.ErrNotFound):
		return &APIError{Code: CodeNotFound, Message: err.Error(), RecoveryHint: "Check ID spelling"}
	case errors.Is(err, project.ErrPermissionDenied):
		return &APIError{Code: CodePermissionDenied, Message: err.Error(), RecoveryHint: "Ask a project owner or manager"}
	case errors.Is(err, project.ErrDuplicateMember):
		return &APIError{Code: CodeDuplicateMember, Message: err.Error(), RecoveryHint: "Use list_members to see current members"}
	case errors.Is(err, project.ErrValidation):
		return &APIError{Code: CodeValidation, Message: err.Error(), RecoveryHint: "Fix the input and retry"}
	case errors.Is(err, project.ErrArchived):
		return &APIError{Code: CodeArchived, Message: err.Error(), RecoveryHint: "Archived projects are read-only"}
	default:
		return &APIError{Code: CodeInternal, Message: "internal error"}
	}
}
