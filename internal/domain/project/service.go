package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/waypoint/internal/domain/activity"
	"github.com/rpggio/waypoint/internal/repository"
)

// maxWriteAttempts bounds re-evaluation after a lost compare-and-swap.
const maxWriteAttempts = 3

// Service orchestrates the project lifecycle.
type Service struct {
	projects   Store
	members    MemberStore
	tasks      TaskReader
	activities ActivityLogger
	history    ActivityReader
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new project service. activities and history may be nil.
func NewService(
	projects Store,
	members MemberStore,
	tasks TaskReader,
	activities ActivityLogger,
	history ActivityReader,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		projects:   projects,
		members:    members,
		tasks:      tasks,
		activities: activities,
		history:    history,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name           string
	Description    string
	OrganizationID string
	OwnerID        string
	StartDate      *time.Time
	EndDate        *time.Time
}

// UpdateRequest defines a partial project update. Nil fields are unchanged.
type UpdateRequest struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// AddMemberRequest defines a membership to add.
type AddMemberRequest struct {
	UserID string
	Role   Role
	// AddedBy is informational; the stored value is always the acting user.
	AddedBy string
}

// CreateProject creates a DRAFT project together with its OWNER membership.
func (s *Service) CreateProject(ctx context.Context, req CreateRequest) (*Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("Project name is required")
	}
	if strings.TrimSpace(req.OrganizationID) == "" {
		return nil, invalid("Organization ID is required")
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, invalid("Owner ID is required")
	}
	req.StartDate, req.EndDate = utcDate(req.StartDate), utcDate(req.EndDate)
	if err := checkDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	now := s.now()
	proj := &Project{
		ID:             uuid.NewString(),
		Name:           name,
		Description:    req.Description,
		Status:         StatusDraft,
		OrganizationID: req.OrganizationID,
		OwnerID:        req.OwnerID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	owner := &Member{
		ProjectID: proj.ID,
		UserID:    req.OwnerID,
		Role:      RoleOwner,
		AddedBy:   req.OwnerID,
		IsActive:  true,
		CreatedAt: now,
	}

	if err := s.projects.CreateWithOwner(ctx, proj, owner); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created", "project_id", proj.ID, "owner_id", proj.OwnerID)
	s.record(ctx, &activity.Entry{
		ProjectID:   proj.ID,
		Type:        activity.TypeProjectCreated,
		ActorID:     req.OwnerID,
		EntityType:  activity.EntityProject,
		EntityID:    proj.ID,
		Description: fmt.Sprintf("Project %q created", proj.Name),
	})

	return proj, nil
}

// UpdateProject applies a partial update to name, description and dates.
func (s *Service) UpdateProject(ctx context.Context, projectID, actorID string, req UpdateRequest) (*Project, error) {
	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if proj.IsArchived {
		return nil, &ArchivedError{ProjectID: projectID}
	}
	if err := s.authorize(ctx, projectID, actorID, ActionUpdate); err != nil {
		return nil, err
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, invalid("Project name cannot be empty")
	}
	req.StartDate, req.EndDate = utcDate(req.StartDate), utcDate(req.EndDate)
	start, end := proj.StartDate, proj.EndDate
	if req.StartDate != nil {
		start = req.StartDate
	}
	if req.EndDate != nil {
		end = req.EndDate
	}
	if err := checkDates(start, end); err != nil {
		return nil, err
	}

	changes := make(map[string]activity.Change)
	patch := Patch{UpdatedAt: s.now()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != proj.Name {
			changes["name"] = activity.Change{From: proj.Name, To: name}
			patch.Name = &name
		}
	}
	if req.Description != nil && *req.Description != proj.Description {
		changes["description"] = activity.Change{From: proj.Description, To: *req.Description}
		patch.Description = req.Description
	}
	if req.StartDate != nil && !sameTime(proj.StartDate, req.StartDate) {
		changes["start_date"] = activity.Change{From: dateValue(proj.StartDate), To: dateValue(req.StartDate)}
		patch.StartDate = req.StartDate
	}
	if req.EndDate != nil && !sameTime(proj.EndDate, req.EndDate) {
		changes["end_date"] = activity.Change{From: dateValue(proj.EndDate), To: dateValue(req.EndDate)}
		patch.EndDate = req.EndDate
	}
	if len(changes) == 0 {
		return proj, nil
	}

	if err := s.projects.Update(ctx, projectID, patch); err != nil {
		return nil, s.writeFailure(ctx, projectID, "updating project", err)
	}

	updated := *proj
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.StartDate != nil {
		updated.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		updated.EndDate = patch.EndDate
	}
	updated.UpdatedAt = patch.UpdatedAt

	s.record(ctx, &activity.Entry{
		ProjectID:   projectID,
		Type:        activity.TypeProjectUpdated,
		ActorID:     actorID,
		EntityType:  activity.EntityProject,
		EntityID:    projectID,
		Changes:     changes,
		Description: "Project updated: " + strings.Join(changedFields(changes), ", "),
	})

	return &updated, nil
}

// ChangeProjectStatus moves a project along the status graph.
func (s *Service) ChangeProjectStatus(ctx context.Context, projectID, actorID string, to Status) (*Project, error) {
	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		proj, err := s.load(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if proj.IsArchived {
			return nil, &ArchivedError{ProjectID: projectID}
		}
		if err := s.authorize(ctx, projectID, actorID, ActionChangeStatus); err != nil {
			return nil, err
		}
		if err := CheckTransition(proj.Status, to); err != nil {
			return nil, err
		}
		if to == StatusCompleted {
			stats, err := s.tasks.TaskStats(ctx, projectID)
			if err != nil {
				return nil, fmt.Errorf("loading task stats: %w", err)
			}
			if stats.MandatoryIncomplete > 0 {
				return nil, invalid("Cannot complete project. %d mandatory tasks are incomplete.", stats.MandatoryIncomplete)
			}
		}

		now := s.now()
		err = s.projects.UpdateStatus(ctx, projectID, proj.Status, to, now)
		if errors.Is(err, repository.ErrConflict) {
			s.logger.Debug("status changed concurrently, re-evaluating",
				"project_id", projectID,
				"attempt", attempt+1,
			)
			lastErr = err
			continue
		}
		if err != nil {
			return nil, s.writeFailure(ctx, projectID, "changing project status", err)
		}

		from := proj.Status
		proj.Status = to
		proj.IsArchived = to == StatusArchived
		proj.UpdatedAt = now

		s.record(ctx, &activity.Entry{
			ProjectID:   projectID,
			Type:        activity.TypeProjectStatusChanged,
			ActorID:     actorID,
			EntityType:  activity.EntityProject,
			EntityID:    projectID,
			Changes:     map[string]activity.Change{"status": {From: string(from), To: string(to)}},
			Description: fmt.Sprintf("Status changed from %s to %s", from, to),
		})
		return proj, nil
	}
	return nil, fmt.Errorf("changing project status: %w", lastErr)
}

// AddMember adds a non-owner member to the project.
func (s *Service) AddMember(ctx context.Context, projectID, actorID string, req AddMemberRequest) (*Member, error) {
	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if proj.IsArchived {
		return nil, &ArchivedError{ProjectID: projectID}
	}
	if err := s.authorize(ctx, projectID, actorID, ActionAddMember); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.UserID) == "" {
		return nil, invalid("User ID is required")
	}
	if !req.Role.IsValid() {
		return nil, invalid("Invalid role %q", string(req.Role))
	}
	if req.Role == RoleOwner {
		return nil, invalid("Project already has an owner")
	}

	exists, err := s.members.MemberExists(ctx, projectID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("checking membership: %w", err)
	}
	if exists {
		return nil, &DuplicateMemberError{UserID: req.UserID}
	}

	member := &Member{
		ProjectID: projectID,
		UserID:    req.UserID,
		Role:      req.Role,
		AddedBy:   actorID,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if err := s.members.AddMember(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &DuplicateMemberError{UserID: req.UserID}
		}
		return nil, fmt.Errorf("adding member: %w", err)
	}

	s.record(ctx, &activity.Entry{
		ProjectID:   projectID,
		Type:        activity.TypeMemberAdded,
		ActorID:     actorID,
		EntityType:  activity.EntityProjectMember,
		EntityID:    req.UserID,
		Changes:     map[string]activity.Change{"role": {From: nil, To: string(req.Role)}},
		Description: fmt.Sprintf("User %s added as %s", req.UserID, req.Role),
	})

	return member, nil
}

// RemoveMember deletes a membership. The owner can never be removed.
func (s *Service) RemoveMember(ctx context.Context, projectID, actorID, userID string) error {
	proj, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}
	if proj.IsArchived {
		return &ArchivedError{ProjectID: projectID}
	}
	// Checked ahead of the role so every caller gets the same answer.
	if userID == proj.OwnerID {
		return invalid("Cannot remove project owner")
	}
	if err := s.authorize(ctx, projectID, actorID, ActionRemoveMember); err != nil {
		return err
	}

	if err := s.members.RemoveMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Entity: "member", ID: userID}
		}
		return fmt.Errorf("removing member: %w", err)
	}

	// TODO: unassign the removed member's open tasks once the task subsystem exposes reassignment.
	s.record(ctx, &activity.Entry{
		ProjectID:   projectID,
		Type:        activity.TypeMemberRemoved,
		ActorID:     actorID,
		EntityType:  activity.EntityProjectMember,
		EntityID:    userID,
		Description: fmt.Sprintf("User %s removed from project", userID),
	})

	return nil
}

// ArchiveProject archives the project. Only the owner may archive.
func (s *Service) ArchiveProject(ctx context.Context, projectID, actorID string) (*Project, error) {
	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		proj, err := s.load(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if proj.IsArchived {
			return nil, &ArchivedError{ProjectID: projectID}
		}
		role, err := s.role(ctx, projectID, actorID)
		if err != nil {
			return nil, err
		}
		if role != RoleOwner {
			return nil, &PermissionError{Action: ActionArchive}
		}

		now := s.now()
		err = s.projects.UpdateStatus(ctx, projectID, proj.Status, StatusArchived, now)
		if errors.Is(err, repository.ErrConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, s.writeFailure(ctx, projectID, "archiving project", err)
		}

		from := proj.Status
		proj.Status = StatusArchived
		proj.IsArchived = true
		proj.UpdatedAt = now

		s.record(ctx, &activity.Entry{
			ProjectID:   projectID,
			Type:        activity.TypeProjectArchived,
			ActorID:     actorID,
			EntityType:  activity.EntityProject,
			EntityID:    projectID,
			Changes:     map[string]activity.Change{"status": {From: string(from), To: string(StatusArchived)}},
			Description: "Project archived",
		})
		return proj, nil
	}
	return nil, fmt.Errorf("archiving project: %w", lastErr)
}

// GetProjectByID returns a project visible to the actor.
func (s *Service) GetProjectByID(ctx context.Context, projectID, actorID string) (*Project, error) {
	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureVisible(ctx, proj, actorID); err != nil {
		return nil, err
	}
	return proj, nil
}

// UpdateProjectProgress recomputes task counters and progress. It performs no
// permission check and leaves archived projects untouched.
func (s *Service) UpdateProjectProgress(ctx context.Context, projectID string) (*Project, error) {
	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if proj.IsArchived {
		return nil, &ArchivedError{ProjectID: projectID}
	}

	stats, err := s.tasks.TaskStats(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading task stats: %w", err)
	}
	progress := ComputeProgress(stats.Total, stats.Done)
	if stats.Total == proj.TotalTasks && stats.Done == proj.CompletedTasks && progress == proj.Progress {
		return proj, nil
	}

	now := s.now()
	if err := s.projects.UpdateProgress(ctx, projectID, stats.Total, stats.Done, progress, now); err != nil {
		return nil, s.writeFailure(ctx, projectID, "updating project progress", err)
	}

	proj.TotalTasks = stats.Total
	proj.CompletedTasks = stats.Done
	proj.Progress = progress
	proj.UpdatedAt = now
	return proj, nil
}

// ListOrganizationProjects lists the organization's projects the actor owns or belongs to.
func (s *Service) ListOrganizationProjects(ctx context.Context, organizationID, actorID string, includeArchived bool) ([]Project, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, invalid("Organization ID is required")
	}
	projects, err := s.projects.List(ctx, ListOptions{
		OrganizationID:  organizationID,
		MemberID:        actorID,
		IncludeArchived: includeArchived,
	})
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// ListMembers returns the project's memberships.
func (s *Service) ListMembers(ctx context.Context, projectID, actorID string) ([]Member, error) {
	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureVisible(ctx, proj, actorID); err != nil {
		return nil, err
	}
	members, err := s.members.ListMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

// ProjectActivity returns the project's activity, newest first.
func (s *Service) ProjectActivity(ctx context.Context, projectID, actorID string, limit int) ([]activity.Entry, error) {
	if s.history == nil {
		return nil, errors.New("activity history not configured")
	}
	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureVisible(ctx, proj, actorID); err != nil {
		return nil, err
	}
	entries, err := s.history.List(ctx, activity.ListOptions{ProjectID: projectID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}

func (s *Service) load(ctx context.Context, projectID string) (*Project, error) {
	proj, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(projectID)
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}
	return proj, nil
}

func (s *Service) role(ctx context.Context, projectID, actorID string) (Role, error) {
	role, err := s.members.GetMemberRole(ctx, projectID, actorID)
	if err != nil {
		return RoleNone, fmt.Errorf("loading member role: %w", err)
	}
	return role, nil
}

func (s *Service) authorize(ctx context.Context, projectID, actorID string, action Action) error {
	role, err := s.role(ctx, projectID, actorID)
	if err != nil {
		return err
	}
	return CheckPermission(role, action)
}

func (s *Service) ensureVisible(ctx context.Context, proj *Project, actorID string) error {
	if actorID != "" && proj.OwnerID == actorID {
		return nil
	}
	exists, err := s.members.MemberExists(ctx, proj.ID, actorID)
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}
	if !exists {
		return &PermissionError{Action: ActionView}
	}
	return nil
}

// writeFailure translates a guarded-write error. A lost archive guard is
// reported as ArchivedError when the project turns out to be archived.
func (s *Service) writeFailure(ctx context.Context, projectID, op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound(projectID)
	case errors.Is(err, repository.ErrConflict):
		current, loadErr := s.load(ctx, projectID)
		if loadErr != nil {
			return loadErr
		}
		if current.IsArchived {
			return &ArchivedError{ProjectID: projectID}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) record(ctx context.Context, entry *activity.Entry) {
	if s.activities == nil {
		return
	}
	if err := s.activities.Log(ctx, entry); err != nil {
		s.logger.Warn("activity log write failed",
			"project_id", entry.ProjectID,
			"type", entry.Type,
			"error", err,
		)
	}
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return invalid("Start date cannot be after end date")
	}
	return nil
}

// utcDate returns a UTC copy of t. Stores and activity changes only ever
// see UTC dates.
func utcDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func changedFields(changes map[string]activity.Change) []string {
	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
