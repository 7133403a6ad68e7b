package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/waypoint/internal/domain/activity"
	"github.com/rpggio/waypoint/internal/domain/project"
)

type tools struct {
	svc    LifecycleService
	logger *slog.Logger
}

func registerTools(server *sdkmcp.Server, svc LifecycleService, logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	t := &tools{svc: svc, logger: logger}

	// Projects
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a DRAFT project owned by the calling user",
	}, t.createProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_project",
		Description: "Update name, description or dates of a project",
	}, t.updateProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "change_project_status",
		Description: "Move a project to another lifecycle status",
	}, t.changeProjectStatus)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "archive_project",
		Description: "Archive a project, making it read-only (owner only)",
	}, t.archiveProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get a project visible to the calling user",
		Annotations: &sdkmcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.getProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List projects of an organization the calling user can see",
		Annotations: &sdkmcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_project_progress",
		Description: "Recompute progress from the project's tasks",
	}, t.updateProjectProgress)

	// Members
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_member",
		Description: "Add a user to a project with a role",
	}, t.addMember)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "remove_member",
		Description: "Remove a user from a project",
	}, t.removeMember)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_members",
		Description: "List the members of a project",
		Annotations: &sdkmcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.listMembers)

	// Activity
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project_activity",
		Description: "Get the activity trail of a project, newest first",
		Annotations: &sdkmcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.projectActivity)
}

func (t *tools) createProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateProjectParams) (*sdkmcp.CallToolResult, any, error) {
	start, err := parseOptionalDate("start_date", in.StartDate)
	if err != nil {
		return t.fail("create_project", err)
	}
	end, err := parseOptionalDate("end_date", in.EndDate)
	if err != nil {
		return t.fail("create_project", err)
	}
	proj, err := t.svc.CreateProject(ctx, project.CreateRequest{
		Name:           in.Name,
		Description:    in.Description,
		OrganizationID: in.OrganizationID,
		OwnerID:        getActorID(ctx),
		StartDate:      start,
		EndDate:        end,
	})
	if err != nil {
		return t.fail("create_project", err)
	}
	return nil, ProjectResult{Project: proj}, nil
}

func (t *tools) updateProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateProjectParams) (*sdkmcp.CallToolResult, any, error) {
	req := project.UpdateRequest{Name: in.Name, Description: in.Description}
	var err error
	if in.StartDate != nil {
		if req.StartDate, err = parseDate("start_date", *in.StartDate); err != nil {
			return t.fail("update_project", err)
		}
	}
	if in.EndDate != nil {
		if req.EndDate, err = parseDate("end_date", *in.EndDate); err != nil {
			return t.fail("update_project", err)
		}
	}
	proj, err := t.svc.UpdateProject(ctx, in.ProjectID, getActorID(ctx), req)
	if err != nil {
		return t.fail("update_project", err)
	}
	return nil, ProjectResult{Project: proj}, nil
}

func (t *tools) changeProjectStatus(ctx context.Context, _ *sdkmcp.CallToolRequest, in ChangeProjectStatusParams) (*sdkmcp.CallToolResult, any, error) {
	status := project.Status(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !status.IsValid() {
		return t.fail("change_project_status", &project.ValidationError{Reason: fmt.Sprintf("Unknown status %q", in.Status)})
	}
	proj, err := t.svc.ChangeProjectStatus(ctx, in.ProjectID, getActorID(ctx), status)
	if err != nil {
		return t.fail("change_project_status", err)
	}
	return nil, ProjectResult{Project: proj}, nil
}

func (t *tools) archiveProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDParams) (*sdkmcp.CallToolResult, any, error) {
	proj, err := t.svc.ArchiveProject(ctx, in.ProjectID, getActorID(ctx))
	if err != nil {
		return t.fail("archive_project", err)
	}
	return nil, ProjectResult{Project: proj}, nil
}

func (t *tools) getProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDParams) (*sdkmcp.CallToolResult, any, error) {
	proj, err := t.svc.GetProjectByID(ctx, in.ProjectID, getActorID(ctx))
	if err != nil {
		return t.fail("get_project", err)
	}
	return nil, ProjectResult{Project: proj}, nil
}

func (t *tools) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListProjectsParams) (*sdkmcp.CallToolResult, any, error) {
	projects, err := t.svc.ListOrganizationProjects(ctx, in.OrganizationID, getActorID(ctx), in.IncludeArchived)
	if err != nil {
		return t.fail("list_projects", err)
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return nil, ListProjectsResult{Projects: projects}, nil
}

func (t *tools) updateProjectProgress(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDParams) (*sdkmcp.CallToolResult, any, error) {
	// Progress is derived data, but callers must still be able to see the project.
	if _, err := t.svc.GetProjectByID(ctx, in.ProjectID, getActorID(ctx)); err != nil {
		return t.fail("update_project_progress", err)
	}
	proj, err := t.svc.UpdateProjectProgress(ctx, in.ProjectID)
	if err != nil {
		return t.fail("update_project_progress", err)
	}
	return nil, ProjectResult{Project: proj}, nil
}

func (t *tools) addMember(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddMemberParams) (*sdkmcp.CallToolResult, any, error) {
	actorID := getActorID(ctx)
	member, err := t.svc.AddMember(ctx, in.ProjectID, actorID, project.AddMemberRequest{
		UserID:  in.UserID,
		Role:    project.Role(strings.ToUpper(strings.TrimSpace(in.Role))),
		AddedBy: actorID,
	})
	if err != nil {
		return t.fail("add_member", err)
	}
	return nil, MemberResult{Member: member}, nil
}

func (t *tools) removeMember(ctx context.Context, _ *sdkmcp.CallToolRequest, in RemoveMemberParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.svc.RemoveMember(ctx, in.ProjectID, getActorID(ctx), in.UserID); err != nil {
		return t.fail("remove_member", err)
	}
	return nil, RemoveMemberResult{ProjectID: in.ProjectID, UserID: in.UserID, Removed: true}, nil
}

func (t *tools) listMembers(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDParams) (*sdkmcp.CallToolResult, any, error) {
	members, err := t.svc.ListMembers(ctx, in.ProjectID, getActorID(ctx))
	if err != nil {
		return t.fail("list_members", err)
	}
	if members == nil {
		members = []project.Member{}
	}
	return nil, ListMembersResult{Members: members}, nil
}

func (t *tools) projectActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetProjectActivityParams) (*sdkmcp.CallToolResult, any, error) {
	entries, err := t.svc.ProjectActivity(ctx, in.ProjectID, getActorID(ctx), in.Limit)
	if err != nil {
		return t.fail("get_project_activity", err)
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	return nil, ActivityResult{Entries: entries}, nil
}

// fail turns a domain error into a tool result carrying the APIError as JSON.
func (t *tools) fail(tool string, err error) (*sdkmcp.CallToolResult, any, error) {
	apiErr := MapError(err)
	if apiErr.Code == CodeInternal {
		t.logger.Error("tool failed", "tool", tool, "error", err)
	} else {
		t.logger.Debug("tool rejected", "tool", tool, "code", apiErr.Code, "error", err)
	}
	data, mErr := json.Marshal(apiErr)
	if mErr != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	return parseDate(field, value)
}

func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if ts, err := time.Parse(layout, value); err == nil {
			ts = ts.UTC()
			return &ts, nil
		}
	}
	return nil, &project.ValidationError{Reason: fmt.Sprintf("Invalid %s %q, expected RFC 3339 or YYYY-MM-DD", field, value)}
}
