package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/waypoint/internal/domain/project"
)

const serverInstructions = `waypoint manages the lifecycle of projects: status, membership and an activity trail.

Core concepts:
- Project: belongs to an organization, has exactly one OWNER, moves through a fixed status graph.
- Member: a user with a role on a project (OWNER, MANAGER, MEMBER, VIEWER).
- Activity: an append-only entry written after every successful change.

Rules of engagement:
1) Orient: list_projects for an organization, then get_project for details.
2) Check before changing: the error code PERMISSION_DENIED means your role lacks the action;
   INVALID_TRANSITION returns the allowed next statuses in its details.
3) ARCHIVED is terminal. Archived projects reject every change with the code ARCHIVED.
4) Use get_project_activity to see who changed what.

Docs:
- waypoint://docs/lifecycle (status graph)
- waypoint://docs/permissions (role x action matrix)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

func docResources() []docResource {
	return []docResource{
		{
			URI:         "waypoint://docs/lifecycle",
			Name:        "docs_lifecycle",
			Title:       "Project lifecycle",
			Description: "Status graph: which status can follow which.",
			Content:     lifecycleDoc(),
		},
		{
			URI:         "waypoint://docs/permissions",
			Name:        "docs_permissions",
			Title:       "Permissions",
			Description: "Which role may perform which action on a project.",
			Content:     permissionsDoc(),
		},
	}
}

func lifecycleDoc() string {
	var b strings.Builder
	b.WriteString("# Project lifecycle\n\nNew projects start in `DRAFT`.\n\n| From | Allowed next |\n|---|---|\n")
	for _, from := range project.Statuses() {
		next := project.NextStatuses(from)
		names := make([]string, 0, len(next))
		for _, s := range next {
			names = append(names, "`"+s.String()+"`")
		}
		if len(names) == 0 {
			names = append(names, "none (terminal)")
		}
		fmt.Fprintf(&b, "| `%s` | %s |\n", from, strings.Join(names, ", "))
	}
	b.WriteString("\nMoving to `ARCHIVED` makes the project read-only. Use `archive_project` (owner only) or `change_project_status`.\n")
	return b.String()
}

func permissionsDoc() string {
	var b strings.Builder
	b.WriteString("# Permissions\n\n| Role |")
	actions := project.Actions()
	for _, a := range actions {
		fmt.Fprintf(&b, " %s |", a)
	}
	b.WriteString("\n|---|")
	for range actions {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, role := range project.Roles() {
		fmt.Fprintf(&b, "| %s |", role)
		for _, a := range actions {
			mark := " "
			if project.Allowed(role, a) {
				mark = "x"
			}
			fmt.Fprintf(&b, " %s |", mark)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nThe project owner can never be removed. Archiving requires the OWNER role.\n")
	return b.String()
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources() {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
