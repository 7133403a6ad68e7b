package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/rpggio/waypoint/internal/domain/activity"
	"github.com/rpggio/waypoint/internal/domain/project"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProjectReader is the read side of the lifecycle service served over REST.
type ProjectReader interface {
	GetProjectByID(ctx context.Context, projectID, actorID string) (*project.Project, error)
	ListMembers(ctx context.Context, projectID, actorID string) ([]project.Member, error)
	ProjectActivity(ctx context.Context, projectID, actorID string, limit int) ([]activity.Entry, error)
}

// RouterConfig wires the HTTP surface. Nil fields disable their routes.
type RouterConfig struct {
	MCP      http.Handler
	Projects ProjectReader
	Health   Pinger
	// Auth resolves the actor, either AuthMiddleware or StaticActor.
	Auth      func(http.Handler) http.Handler
	RateLimit *RateLimiter
	Logger    *slog.Logger
}

// NewRouter creates the HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.Recoverer)
	if cfg.Logger != nil {
		r.Use(requestLogger(cfg.Logger))
	}

	srv := &server{projects: cfg.Projects, health: cfg.Health}
	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(cfg.Auth)
		}
		r.Use(cfg.RateLimit.Middleware)

		if cfg.MCP != nil {
			r.Handle("/mcp", cfg.MCP)
		}
		if cfg.Projects != nil {
			r.Route("/api/projects/{projectID}", func(r chi.Router) {
				r.Get("/", srv.handleGetProject)
				r.Get("/members", srv.handleListMembers)
				r.Get("/activity", srv.handleActivity)
			})
		}
	})

	return r
}

type server struct {
	projects ProjectReader
	health   Pinger
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	actorID, _ := ActorFromContext(r.Context())
	proj, err := s.projects.GetProjectByID(r.Context(), chi.URLParam(r, "projectID"), actorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	actorID, _ := ActorFromContext(r.Context())
	members, err := s.projects.ListMembers(r.Context(), chi.URLParam(r, "projectID"), actorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if members == nil {
		members = []project.Member{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (s *server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	actorID, _ := ActorFromContext(r.Context())
	entries, err := s.projects.ProjectActivity(r.Context(), chi.URLParam(r, "projectID"), actorID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimid.GetReqID(r.Context()),
			)
		})
	}
}
