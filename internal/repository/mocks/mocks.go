package mocks

import (
	"context"
	"time"

	"github.com/rpggio/waypoint/internal/domain/activity"
	"github.com/rpggio/waypoint/internal/domain/project"
	"github.com/stretchr/testify/mock"
)

// ProjectStore is a mock for project.Store.
type ProjectStore struct {
	mock.Mock
}

func (m *ProjectStore) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		cp := *proj
		return &cp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectStore) List(ctx context.Context, opts project.ListOptions) ([]project.Project, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectStore) ListIDs(ctx context.Context, includeArchived bool) ([]string, error) {
	args := m.Called(ctx, includeArchived)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectStore) CreateWithOwner(ctx context.Context, proj *project.Project, owner *project.Member) error {
	args := m.Called(ctx, proj, owner)
	return args.Error(0)
}

func (m *ProjectStore) Update(ctx context.Context, id string, patch project.Patch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *ProjectStore) UpdateStatus(ctx context.Context, id string, from, to project.Status, at time.Time) error {
	args := m.Called(ctx, id, from, to, at)
	return args.Error(0)
}

func (m *ProjectStore) UpdateProgress(ctx context.Context, id string, total, completed, progress int, at time.Time) error {
	args := m.Called(ctx, id, total, completed, progress, at)
	return args.Error(0)
}

// MemberStore is a mock for project.MemberStore.
type MemberStore struct {
	mock.Mock
}

func (m *MemberStore) AddMember(ctx context.Context, member *project.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MemberStore) RemoveMember(ctx context.Context, projectID, userID string) error {
	args := m.Called(ctx, projectID, userID)
	return args.Error(0)
}

func (m *MemberStore) GetMemberRole(ctx context.Context, projectID, userID string) (project.Role, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Get(0).(project.Role), args.Error(1)
}

func (m *MemberStore) MemberExists(ctx context.Context, projectID, userID string) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MemberStore) ListMembers(ctx context.Context, projectID string) ([]project.Member, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]project.Member); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// TaskReader is a mock for project.TaskReader.
type TaskReader struct {
	mock.Mock
}

func (m *TaskReader) TaskStats(ctx context.Context, projectID string) (project.TaskStats, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(project.TaskStats), args.Error(1)
}

// ActivityRepository is a mock for activity.Repository. It also satisfies
// project.ActivityLogger and project.ActivityReader.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
