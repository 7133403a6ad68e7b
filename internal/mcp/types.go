package mcp

import (
	"github.com/rpggio/waypoint/internal/domain/activity"
	"github.com/rpggio/waypoint/internal/domain/project"
)

// Dates are accepted as RFC 3339 timestamps or YYYY-MM-DD.

type CreateProjectParams struct {
	Name           string `json:"name" jsonschema:"project display name"`
	Description    string `json:"description,omitempty" jsonschema:"free-form description"`
	OrganizationID string `json:"organization_id" jsonschema:"organization that owns the project"`
	StartDate      string `json:"start_date,omitempty" jsonschema:"planned start date"`
	EndDate        string `json:"end_date,omitempty" jsonschema:"planned end date, not before start_date"`
}

type UpdateProjectParams struct {
	ProjectID   string  `json:"project_id"`
	Name        *string `json:"name,omitempty" jsonschema:"new name; omit to keep"`
	Description *string `json:"description,omitempty" jsonschema:"new description; omit to keep"`
	StartDate   *string `json:"start_date,omitempty" jsonschema:"new start date; omit to keep"`
	EndDate     *string `json:"end_date,omitempty" jsonschema:"new end date; omit to keep"`
}

type ChangeProjectStatusParams struct {
	ProjectID string `json:"project_id"`
	Status    string `json:"status" jsonschema:"target status: DRAFT, PLANNED, ACTIVE, ON_HOLD, COMPLETED or ARCHIVED"`
}

type AddMemberParams struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Role      string `json:"role" jsonschema:"MANAGER, MEMBER or VIEWER"`
}

type RemoveMemberParams struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
}

type ProjectIDParams struct {
	ProjectID string `json:"project_id"`
}

type ListProjectsParams struct {
	OrganizationID  string `json:"organization_id"`
	IncludeArchived bool   `json:"include_archived,omitempty" jsonschema:"also return archived projects"`
}

type GetProjectActivityParams struct {
	ProjectID string `json:"project_id"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum entries, newest first"`
}

type ProjectResult struct {
	Project *project.Project `json:"project"`
}

type MemberResult struct {
	Member *project.Member `json:"member"`
}

type RemoveMemberResult struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Removed   bool   `json:"removed"`
}

type ListProjectsResult struct {
	Projects []project.Project `json:"projects"`
}

type ListMembersResult struct {
	Members []project.Member `json:"members"`
}

type ActivityResult struct {
	Entries []activity.Entry `json:"entries"`
}
