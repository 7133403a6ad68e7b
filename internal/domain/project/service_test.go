package project_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/waypoint/internal/domain/activity"
	"github.com/rpggio/waypoint/internal/domain/project"
	"github.com/rpggio/waypoint/internal/repository"
	"github.com/rpggio/waypoint/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	projects   *mocks.ProjectStore
	members    *mocks.MemberStore
	tasks      *mocks.TaskReader
	activities *mocks.ActivityRepository
	svc        *project.Service
}

func newFixture() *fixture {
	f := &fixture{
		projects:   &mocks.ProjectStore{},
		members:    &mocks.MemberStore{},
		tasks:      &mocks.TaskReader{},
		activities: &mocks.ActivityRepository{},
	}
	f.svc = project.NewService(f.projects, f.members, f.tasks, f.activities, f.activities, nil)
	return f
}

func (f *fixture) assert(t *testing.T) {
	f.projects.AssertExpectations(t)
	f.members.AssertExpectations(t)
	f.tasks.AssertExpectations(t)
	f.activities.AssertExpectations(t)
}

func ofType(typ activity.Type) any {
	return mock.MatchedBy(func(e *activity.Entry) bool { return e.Type == typ })
}

func sampleProject(status project.Status) *project.Project {
	return &project.Project{
		ID:             "proj1",
		Name:           "Apollo",
		Status:         status,
		OrganizationID: "org1",
		OwnerID:        "owner",
		IsArchived:     status == project.StatusArchived,
	}
}

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestService_CreateProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	var created *project.Project
	var owner *project.Member
	f.projects.On("CreateWithOwner", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*project.Project)
			owner = args.Get(2).(*project.Member)
		}).
		Return(nil)
	f.activities.On("Log", ctx, ofType(activity.TypeProjectCreated)).Return(nil)

	proj, err := f.svc.CreateProject(ctx, project.CreateRequest{
		Name:           "  Apollo ",
		OrganizationID: "org1",
		OwnerID:        "owner",
	})
	require.NoError(t, err)
	require.NotEmpty(t, proj.ID)
	require.Equal(t, "Apollo", proj.Name)
	require.Equal(t, project.StatusDraft, proj.Status)
	require.Zero(t, proj.Progress)
	require.False(t, proj.IsArchived)

	require.Same(t, proj, created)
	require.Equal(t, proj.ID, owner.ProjectID)
	require.Equal(t, "owner", owner.UserID)
	require.Equal(t, project.RoleOwner, owner.Role)
	require.Equal(t, "owner", owner.AddedBy)
	require.True(t, owner.IsActive)
	f.assert(t)
}

func TestService_CreateProjectRejectsInvertedDates(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateProject(context.Background(), project.CreateRequest{
		Name:           "Apollo",
		OrganizationID: "org1",
		OwnerID:        "owner",
		StartDate:      date("2026-02-01"),
		EndDate:        date("2026-01-01"),
	})
	require.ErrorIs(t, err, project.ErrValidation)
	require.EqualError(t, err, "Start date cannot be after end date")
	f.projects.AssertNotCalled(t, "CreateWithOwner", mock.Anything, mock.Anything, mock.Anything)
	f.activities.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestService_CreateProjectValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, req := range []project.CreateRequest{
		{Name: "  ", OrganizationID: "org1", OwnerID: "owner"},
		{Name: "Apollo", OwnerID: "owner"},
		{Name: "Apollo", OrganizationID: "org1"},
	} {
		_, err := f.svc.CreateProject(ctx, req)
		require.ErrorIs(t, err, project.ErrValidation)
	}
}

func TestService_CreateProjectStoreFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	storeErr := errors.New("disk full")
	f.projects.On("CreateWithOwner", ctx, mock.Anything, mock.Anything).Return(storeErr)

	_, err := f.svc.CreateProject(ctx, project.CreateRequest{Name: "Apollo", OrganizationID: "org1", OwnerID: "owner"})
	require.ErrorIs(t, err, storeErr)
	require.NotErrorIs(t, err, project.ErrValidation)
	f.activities.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestService_ActivityFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.On("CreateWithOwner", ctx, mock.Anything, mock.Anything).Return(nil)
	f.activities.On("Log", ctx, mock.Anything).Return(errors.New("audit store down"))

	proj, err := f.svc.CreateProject(ctx, project.CreateRequest{Name: "Apollo", OrganizationID: "org1", OwnerID: "owner"})
	require.NoError(t, err)
	require.NotNil(t, proj)
}

func TestService_UpdateProjectTracksChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
	f.members.On("GetMemberRole", ctx, "proj1", "member").Return(project.RoleMember, nil)
	f.projects.On("Update", ctx, "proj1", mock.MatchedBy(func(p project.Patch) bool {
		return p.Name != nil && *p.Name == "Artemis" && p.Description == nil
	})).Return(nil)

	var logged *activity.Entry
	f.activities.On("Log", ctx, ofType(activity.TypeProjectUpdated)).
		Run(func(args mock.Arguments) { logged = args.Get(1).(*activity.Entry) }).
		Return(nil)

	name := "Artemis"
	proj, err := f.svc.UpdateProject(ctx, "proj1", "member", project.UpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Artemis", proj.Name)
	require.Equal(t, map[string]activity.Change{"name": {From: "Apollo", To: "Artemis"}}, logged.Changes)
	require.Equal(t, "member", logged.ActorID)
	f.assert(t)
}

func TestService_UpdateProjectNoChangesSkipsWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
	f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)

	name := "Apollo"
	_, err := f.svc.UpdateProject(ctx, "proj1", "owner", project.UpdateRequest{Name: &name})
	require.NoError(t, err)
	f.projects.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	f.activities.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestService_UpdateProjectValidatesMergedDates(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	proj := sampleProject(project.StatusActive)
	proj.EndDate = date("2026-01-01")
	f.projects.On("Get", ctx, "proj1").Return(proj, nil)
	f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)

	_, err := f.svc.UpdateProject(ctx, "proj1", "owner", project.UpdateRequest{StartDate: date("2026-03-01")})
	require.ErrorIs(t, err, project.ErrValidation)
	f.projects.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_UpdateProjectErrors(t *testing.T) {
	ctx := context.Background()
	name := "Artemis"

	t.Run("not found", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)
		_, err := f.svc.UpdateProject(ctx, "missing", "owner", project.UpdateRequest{Name: &name})
		require.ErrorIs(t, err, project.ErrNotFound)
		require.EqualError(t, err, "Project with ID missing not found")
	})

	t.Run("archived", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusArchived), nil)
		_, err := f.svc.UpdateProject(ctx, "proj1", "owner", project.UpdateRequest{Name: &name})
		require.ErrorIs(t, err, project.ErrArchived)
		f.members.AssertNotCalled(t, "GetMemberRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("viewer denied", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
		f.members.On("GetMemberRole", ctx, "proj1", "viewer").Return(project.RoleViewer, nil)
		_, err := f.svc.UpdateProject(ctx, "proj1", "viewer", project.UpdateRequest{Name: &name})
		require.ErrorIs(t, err, project.ErrPermissionDenied)
	})

	t.Run("archived concurrently", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil).Once()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusArchived), nil).Once()
		f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)
		f.projects.On("Update", ctx, "proj1", mock.Anything).Return(repository.ErrConflict)
		_, err := f.svc.UpdateProject(ctx, "proj1", "owner", project.UpdateRequest{Name: &name})
		require.ErrorIs(t, err, project.ErrArchived)
		f.activities.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
	})
}

func TestService_ChangeProjectStatusByRole(t *testing.T) {
	ctx := context.Background()

	t.Run("member denied", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusPlanned), nil)
		f.members.On("GetMemberRole", ctx, "proj1", "member").Return(project.RoleMember, nil)

		_, err := f.svc.ChangeProjectStatus(ctx, "proj1", "member", project.StatusActive)
		require.ErrorIs(t, err, project.ErrPermissionDenied)
		f.projects.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("manager allowed", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusPlanned), nil)
		f.members.On("GetMemberRole", ctx, "proj1", "manager").Return(project.RoleManager, nil)
		f.projects.On("UpdateStatus", ctx, "proj1", project.StatusPlanned, project.StatusActive, mock.Anything).Return(nil)

		var logged *activity.Entry
		f.activities.On("Log", ctx, ofType(activity.TypeProjectStatusChanged)).
			Run(func(args mock.Arguments) { logged = args.Get(1).(*activity.Entry) }).
			Return(nil)

		proj, err := f.svc.ChangeProjectStatus(ctx, "proj1", "manager", project.StatusActive)
		require.NoError(t, err)
		require.Equal(t, project.StatusActive, proj.Status)
		require.Equal(t, "Status changed from PLANNED to ACTIVE", logged.Description)
		require.Equal(t, activity.Change{From: "PLANNED", To: "ACTIVE"}, logged.Changes["status"])
		f.assert(t)
	})

	t.Run("non member denied", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusPlanned), nil)
		f.members.On("GetMemberRole", ctx, "proj1", "stranger").Return(project.RoleNone, nil)

		_, err := f.svc.ChangeProjectStatus(ctx, "proj1", "stranger", project.StatusActive)
		require.ErrorIs(t, err, project.ErrPermissionDenied)
	})
}

func TestService_ChangeProjectStatusInvalidTransition(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusPlanned), nil)
	f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)

	_, err := f.svc.ChangeProjectStatus(ctx, "proj1", "owner", project.StatusCompleted)
	require.ErrorIs(t, err, project.ErrInvalidTransition)
	f.tasks.AssertNotCalled(t, "TaskStats", mock.Anything, mock.Anything)
}

func TestService_ChangeProjectStatusCompletionPrecondition(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
	f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)
	f.tasks.On("TaskStats", ctx, "proj1").Return(project.TaskStats{Total: 2, Done: 1, MandatoryIncomplete: 1}, nil).Once()

	_, err := f.svc.ChangeProjectStatus(ctx, "proj1", "owner", project.StatusCompleted)
	require.ErrorIs(t, err, project.ErrValidation)
	require.EqualError(t, err, "Cannot complete project. 1 mandatory tasks are incomplete.")

	f.tasks.On("TaskStats", ctx, "proj1").Return(project.TaskStats{Total: 2, Done: 2}, nil).Once()
	f.projects.On("UpdateStatus", ctx, "proj1", project.StatusActive, project.StatusCompleted, mock.Anything).Return(nil)
	f.activities.On("Log", ctx, ofType(activity.TypeProjectStatusChanged)).Return(nil)

	proj, err := f.svc.ChangeProjectStatus(ctx, "proj1", "owner", project.StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, project.StatusCompleted, proj.Status)
	f.assert(t)
}

func TestService_ChangeProjectStatusReevaluatesAfterConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusPlanned), nil).Once()
	f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil).Once()
	f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)
	f.projects.On("UpdateStatus", ctx, "proj1", project.StatusPlanned, project.StatusDraft, mock.Anything).
		Return(repository.ErrConflict)

	_, err := f.svc.ChangeProjectStatus(ctx, "proj1", "owner", project.StatusDraft)

	var te *project.TransitionError
	require.True(t, errors.As(err, &te))
	require.Equal(t, project.StatusActive, te.From)
	f.activities.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestService_ChangeProjectStatusGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusDraft), nil)
	f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)
	f.projects.On("UpdateStatus", ctx, "proj1", project.StatusDraft, project.StatusPlanned, mock.Anything).
		Return(repository.ErrConflict)

	_, err := f.svc.ChangeProjectStatus(ctx, "proj1", "owner", project.StatusPlanned)
	require.ErrorIs(t, err, repository.ErrConflict)
	f.projects.AssertNumberOfCalls(t, "UpdateStatus", 3)
}

func TestService_AddMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
	f.members.On("GetMemberRole", ctx, "proj1", "manager").Return(project.RoleManager, nil)
	f.members.On("MemberExists", ctx, "proj1", "alice").Return(false, nil)
	f.members.On("AddMember", ctx, mock.MatchedBy(func(m *project.Member) bool {
		return m.UserID == "alice" && m.Role == project.RoleViewer && m.AddedBy == "manager"
	})).Return(nil)

	var logged *activity.Entry
	f.activities.On("Log", ctx, ofType(activity.TypeMemberAdded)).
		Run(func(args mock.Arguments) { logged = args.Get(1).(*activity.Entry) }).
		Return(nil)

	member, err := f.svc.AddMember(ctx, "proj1", "manager", project.AddMemberRequest{
		UserID:  "alice",
		Role:    project.RoleViewer,
		AddedBy: "someone-else",
	})
	require.NoError(t, err)
	require.Equal(t, "manager", member.AddedBy)
	require.Equal(t, "User alice added as VIEWER", logged.Description)
	require.Equal(t, activity.EntityProjectMember, logged.EntityType)
	f.assert(t)
}

func TestService_AddMemberDuplicate(t *testing.T) {
	ctx := context.Background()

	t.Run("existing row", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
		f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)
		f.members.On("MemberExists", ctx, "proj1", "alice").Return(true, nil)

		_, err := f.svc.AddMember(ctx, "proj1", "owner", project.AddMemberRequest{UserID: "alice", Role: project.RoleMember})
		require.ErrorIs(t, err, project.ErrDuplicateMember)
		require.EqualError(t, err, "User alice is already a member of this project")
	})

	t.Run("lost insert race", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
		f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)
		f.members.On("MemberExists", ctx, "proj1", "alice").Return(false, nil)
		f.members.On("AddMember", ctx, mock.Anything).Return(repository.ErrDuplicate)

		_, err := f.svc.AddMember(ctx, "proj1", "owner", project.AddMemberRequest{UserID: "alice", Role: project.RoleMember})
		var dup *project.DuplicateMemberError
		require.True(t, errors.As(err, &dup))
		require.Equal(t, "alice", dup.UserID)
		f.activities.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
	})
}

func TestService_AddMemberValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
	f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)

	for _, req := range []project.AddMemberRequest{
		{UserID: "", Role: project.RoleMember},
		{UserID: "alice", Role: "ADMIN"},
		{UserID: "alice", Role: project.RoleOwner},
	} {
		_, err := f.svc.AddMember(ctx, "proj1", "owner", req)
		require.ErrorIs(t, err, project.ErrValidation)
	}
	f.members.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything)
}

func TestService_RemoveOwnerAlwaysFails(t *testing.T) {
	ctx := context.Background()
	for _, actor := range []string{"owner", "manager", "viewer", "stranger"} {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)

		err := f.svc.RemoveMember(ctx, "proj1", actor, "owner")
		require.ErrorIs(t, err, project.ErrValidation, "actor %s", actor)
		require.EqualError(t, err, "Cannot remove project owner")
		f.members.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestService_RemoveMember(t *testing.T) {
	ctx := context.Background()

	t.Run("owner removes member", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
		f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)
		f.members.On("RemoveMember", ctx, "proj1", "alice").Return(nil)
		f.activities.On("Log", ctx, ofType(activity.TypeMemberRemoved)).Return(nil)

		require.NoError(t, f.svc.RemoveMember(ctx, "proj1", "owner", "alice"))
		f.assert(t)
	})

	t.Run("manager denied", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
		f.members.On("GetMemberRole", ctx, "proj1", "manager").Return(project.RoleManager, nil)

		err := f.svc.RemoveMember(ctx, "proj1", "manager", "alice")
		require.ErrorIs(t, err, project.ErrPermissionDenied)
	})

	t.Run("missing membership", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
		f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)
		f.members.On("RemoveMember", ctx, "proj1", "ghost").Return(repository.ErrNotFound)

		err := f.svc.RemoveMember(ctx, "proj1", "owner", "ghost")
		var nf *project.NotFoundError
		require.True(t, errors.As(err, &nf))
		require.Equal(t, "member", nf.Entity)
	})
}

func TestService_ArchiveProject(t *testing.T) {
	ctx := context.Background()

	t.Run("manager denied", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
		f.members.On("GetMemberRole", ctx, "proj1", "manager").Return(project.RoleManager, nil)

		_, err := f.svc.ArchiveProject(ctx, "proj1", "manager")
		var pe *project.PermissionError
		require.True(t, errors.As(err, &pe))
		require.Equal(t, project.ActionArchive, pe.Action)
	})

	t.Run("owner archives", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusOnHold), nil)
		f.members.On("GetMemberRole", ctx, "proj1", "owner").Return(project.RoleOwner, nil)
		f.projects.On("UpdateStatus", ctx, "proj1", project.StatusOnHold, project.StatusArchived, mock.Anything).Return(nil)
		f.activities.On("Log", ctx, ofType(activity.TypeProjectArchived)).Return(nil)

		proj, err := f.svc.ArchiveProject(ctx, "proj1", "owner")
		require.NoError(t, err)
		require.Equal(t, project.StatusArchived, proj.Status)
		require.True(t, proj.IsArchived)
		f.assert(t)
	})

	t.Run("already archived", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusArchived), nil)

		_, err := f.svc.ArchiveProject(ctx, "proj1", "owner")
		require.ErrorIs(t, err, project.ErrArchived)
	})
}

func TestService_GetProjectByID(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
	f.members.On("MemberExists", ctx, "proj1", "former").Return(true, nil)
	f.members.On("MemberExists", ctx, "proj1", "stranger").Return(false, nil)

	owned, err := f.svc.GetProjectByID(ctx, "proj1", "owner")
	require.NoError(t, err)

	first, err := f.svc.GetProjectByID(ctx, "proj1", "former")
	require.NoError(t, err)
	second, err := f.svc.GetProjectByID(ctx, "proj1", "former")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, owned, first)

	_, err = f.svc.GetProjectByID(ctx, "proj1", "stranger")
	require.ErrorIs(t, err, project.ErrPermissionDenied)
	require.EqualError(t, err, "Unauthorized to view this project")
}

func TestService_UpdateProjectProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("recomputes", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
		f.tasks.On("TaskStats", ctx, "proj1").Return(project.TaskStats{Total: 3, Done: 2}, nil)
		f.projects.On("UpdateProgress", ctx, "proj1", 3, 2, 67, mock.Anything).Return(nil)

		proj, err := f.svc.UpdateProjectProgress(ctx, "proj1")
		require.NoError(t, err)
		require.Equal(t, 67, proj.Progress)
		f.members.AssertNotCalled(t, "GetMemberRole", mock.Anything, mock.Anything, mock.Anything)
		f.assert(t)
	})

	t.Run("archived untouched", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusArchived), nil)

		_, err := f.svc.UpdateProjectProgress(ctx, "proj1")
		require.ErrorIs(t, err, project.ErrArchived)
		f.tasks.AssertNotCalled(t, "TaskStats", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture()
		f.projects.On("Get", ctx, "nope").Return(nil, repository.ErrNotFound)

		_, err := f.svc.UpdateProjectProgress(ctx, "nope")
		require.ErrorIs(t, err, project.ErrNotFound)
	})
}

func TestService_ListOrganizationProjects(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	opts := project.ListOptions{OrganizationID: "org1", MemberID: "alice"}
	f.projects.On("List", ctx, opts).Return([]project.Project{*sampleProject(project.StatusActive)}, nil)

	list, err := f.svc.ListOrganizationProjects(ctx, "org1", "alice", false)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.svc.ListOrganizationProjects(ctx, "", "alice", false)
	require.ErrorIs(t, err, project.ErrValidation)
}

func TestService_ProjectActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.On("Get", ctx, "proj1").Return(sampleProject(project.StatusActive), nil)
	f.activities.On("List", ctx, activity.ListOptions{ProjectID: "proj1", Limit: 10}).
		Return([]activity.Entry{{ProjectID: "proj1", Type: activity.TypeProjectCreated}}, nil)

	entries, err := f.svc.ProjectActivity(ctx, "proj1", "owner", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
