package project

import (
	"context"
	"time"

	"github.com/rpggio/waypoint/internal/domain/activity"
)

// ListOptions filters project listings.
type ListOptions struct {
	OrganizationID string
	// MemberID restricts results to projects the user owns or belongs to.
	MemberID        string
	IncludeArchived bool
}

// Store provides persistence for projects.
//
// Update, UpdateStatus and UpdateProgress return repository.ErrConflict when
// their guard no longer holds and repository.ErrNotFound when the row is gone.
type Store interface {
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, opts ListOptions) ([]Project, error)
	ListIDs(ctx context.Context, includeArchived bool) ([]string, error)
	// CreateWithOwner inserts the project and its OWNER membership atomically.
	CreateWithOwner(ctx context.Context, proj *Project, owner *Member) error
	// Update applies patch only while the project is not archived.
	Update(ctx context.Context, id string, patch Patch) error
	// UpdateStatus writes to only while the stored status still equals from.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error
	UpdateProgress(ctx context.Context, id string, total, completed, progress int, at time.Time) error
}

// MemberStore provides persistence for project memberships.
type MemberStore interface {
	// AddMember returns repository.ErrDuplicate when the pair already exists.
	AddMember(ctx context.Context, member *Member) error
	RemoveMember(ctx context.Context, projectID, userID string) error
	// GetMemberRole returns RoleNone when the user has no active membership.
	GetMemberRole(ctx context.Context, projectID, userID string) (Role, error)
	// MemberExists counts inactive rows too.
	MemberExists(ctx context.Context, projectID, userID string) (bool, error)
	ListMembers(ctx context.Context, projectID string) ([]Member, error)
}

// TaskReader reads task aggregates owned by the task subsystem.
type TaskReader interface {
	TaskStats(ctx context.Context, projectID string) (TaskStats, error)
}

// ActivityLogger appends activity entries.
type ActivityLogger interface {
	Log(ctx context.Context, entry *activity.Entry) error
}

// ActivityReader reads a project's activity history.
type ActivityReader interface {
	List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}
