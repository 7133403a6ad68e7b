package project

import "time"

// Status is the lifecycle state of a project.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPlanned   Status = "PLANNED"
	StatusActive    Status = "ACTIVE"
	StatusOnHold    Status = "ON_HOLD"
	StatusCompleted Status = "COMPLETED"
	StatusArchived  Status = "ARCHIVED"
)

// Statuses returns every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusDraft, StatusPlanned, StatusActive, StatusOnHold, StatusCompleted, StatusArchived}
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPlanned, StatusActive, StatusOnHold, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Role is a member's role within a project.
type Role string

const (
	// RoleNone means the user has no active membership.
	RoleNone    Role = ""
	RoleOwner   Role = "OWNER"
	RoleManager Role = "MANAGER"
	RoleMember  Role = "MEMBER"
	RoleViewer  Role = "VIEWER"
)

// Roles returns every assignable role, most privileged first.
func Roles() []Role {
	return []Role{RoleOwner, RoleManager, RoleMember, RoleViewer}
}

// IsValid reports whether r is an assignable role.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleMember, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Project is the aggregate root of the lifecycle core.
type Project struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Status         Status     `json:"status"`
	OrganizationID string     `json:"organization_id"`
	OwnerID        string     `json:"owner_id"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Progress       int        `json:"progress"`
	TotalTasks     int        `json:"total_tasks"`
	CompletedTasks int        `json:"completed_tasks"`
	IsArchived     bool       `json:"is_archived"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Member records a user's role in a project.
type Member struct {
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	AddedBy   string    `json:"added_by"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Patch carries the fields an update writes. Nil fields are left unchanged.
type Patch struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	UpdatedAt   time.Time
}

// TaskStats aggregates the tasks attached to a project.
type TaskStats struct {
	Total               int
	Done                int
	MandatoryIncomplete int
}

// ComputeProgress returns the completion percentage rounded to the nearest integer.
func ComputeProgress(total, done int) int {
	if total <= 0 {
		return 0
	}
	if done > total {
		done = total
	}
	return (done*200 + total) / (2 * total)
}
