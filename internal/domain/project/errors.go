package project

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the project or membership doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied indicates the actor's role does not grant the action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidTransition indicates the status graph forbids the change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrDuplicateMember indicates the user already has a membership row.
	ErrDuplicateMember = errors.New("duplicate member")
	// ErrValidation indicates input or a domain precondition was rejected.
	ErrValidation = errors.New("validation failed")
	// ErrArchived indicates the project is archived and read-only.
	ErrArchived = errors.New("project archived")
)

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.Entity == "member" {
		return fmt.Sprintf("User %s is not a member of this project", e.ID)
	}
	return fmt.Sprintf("Project with ID %s not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PermissionError names the denied action.
type PermissionError struct {
	Action Action
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("Unauthorized to %s this project", e.Action)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

// TransitionError carries the rejected edge.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Cannot transition project from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// DuplicateMemberError names the user already on the project.
type DuplicateMemberError struct {
	UserID string
}

func (e *DuplicateMemberError) Error() string {
	return fmt.Sprintf("User %s is already a member of this project", e.UserID)
}

func (e *DuplicateMemberError) Unwrap() error { return ErrDuplicateMember }

// ValidationError carries a human readable reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ArchivedError reports a mutation attempted on an archived project.
type ArchivedError struct {
	ProjectID string
}

func (e *ArchivedError) Error() string { return "Cannot modify an archived project" }

func (e *ArchivedError) Unwrap() error { return ErrArchived }

func notFound(id string) error { return &NotFoundError{Entity: "project", ID: id} }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
