package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/waypoint/internal/domain/activity"
	"github.com/rpggio/waypoint/internal/domain/project"
)

// LifecycleService defines the project operations exposed as tools.
type LifecycleService interface {
	CreateProject(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	UpdateProject(ctx context.Context, projectID, actorID string, req project.UpdateRequest) (*project.Project, error)
	ChangeProjectStatus(ctx context.Context, projectID, actorID string, to project.Status) (*project.Project, error)
	AddMember(ctx context.Context, projectID, actorID string, req project.AddMemberRequest) (*project.Member, error)
	RemoveMember(ctx context.Context, projectID, actorID, userID string) error
	ArchiveProject(ctx context.Context, projectID, actorID string) (*project.Project, error)
	GetProjectByID(ctx context.Context, projectID, actorID string) (*project.Project, error)
	UpdateProjectProgress(ctx context.Context, projectID string) (*project.Project, error)
	ListOrganizationProjects(ctx context.Context, organizationID, actorID string, includeArchived bool) ([]project.Project, error)
	ListMembers(ctx context.Context, projectID, actorID string) ([]project.Member, error)
	ProjectActivity(ctx context.Context, projectID, actorID string, limit int) ([]activity.Entry, error)
}

// Config contains server configuration.
type Config struct {
	Service       LifecycleService
	Resolver      ActorResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	// DefaultActor acts for every call when auth is off.
	DefaultActor string
	Logger       *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "waypoint",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio has no headers to carry a token.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultActor))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Service, cfg.Logger)

	return server
}
