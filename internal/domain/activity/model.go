package activity

import "time"

// Type represents the type of activity event
type Type string

const (
	TypeProjectCreated       Type = "PROJECT_CREATED"
	TypeProjectUpdated       Type = "PROJECT_UPDATED"
	TypeProjectStatusChanged Type = "PROJECT_STATUS_CHANGED"
	TypeProjectArchived      Type = "PROJECT_ARCHIVED"
	TypeMemberAdded          Type = "MEMBER_ADDED"
	TypeMemberRemoved        Type = "MEMBER_REMOVED"
)

// Entity types an entry can refer to.
const (
	EntityProject       = "project"
	EntityProjectMember = "project_member"
)

// Change is the before and after value of a single field.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Entry represents an event in the activity log
type Entry struct {
	ID          int64             `json:"id"`
	ProjectID   string            `json:"project_id"`
	Type        Type              `json:"type"`
	ActorID     string            `json:"actor_id"`
	EntityType  string            `json:"entity_type"`
	EntityID    string            `json:"entity_id"`
	Changes     map[string]Change `json:"changes,omitempty"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
}
