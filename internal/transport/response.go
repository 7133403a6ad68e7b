package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rpggio/waypoint/internal/domain/project"
	"github.com/rpggio/waypoint/internal/mcp"
)

// StatusCode maps a domain error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, project.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, project.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, project.ErrInvalidTransition), errors.Is(err, project.ErrDuplicateMember):
		return http.StatusConflict
	case errors.Is(err, project.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, project.ErrArchived):
		return http.StatusLocked
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeDomainError renders err with the same codes the MCP tools use.
func writeDomainError(w http.ResponseWriter, err error) {
	apiErr := mcp.MapError(err)
	writeError(w, StatusCode(err), apiErr.Code, apiErr.Message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
