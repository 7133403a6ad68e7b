// Package testserver runs the full HTTP stack over an in-memory SQLite
// database for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/waypoint/internal/domain/activity"
	"github.com/rpggio/waypoint/internal/domain/project"
	"github.com/rpggio/waypoint/internal/mcp"
	"github.com/rpggio/waypoint/internal/sqlite"
	"github.com/rpggio/waypoint/internal/transport"
)

type TestServer struct {
	Server  *httptest.Server
	DB      *sqlite.DB
	Service *project.Service
	Keys    *sqlite.APIKeyRepository
}

// New starts a server with auth enabled. Activity is written synchronously
// so tests can read it back immediately.
func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	svc := project.NewService(
		sqlite.NewProjectRepository(db),
		sqlite.NewMemberRepository(db),
		sqlite.NewTaskRepository(db),
		activitySvc,
		activitySvc,
		nil,
	)
	keys := sqlite.NewAPIKeyRepository(db)

	mcpServer := mcp.NewServer(mcp.Config{
		Service:       svc,
		Resolver:      keys,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	server := httptest.NewServer(transport.NewRouter(transport.RouterConfig{
		MCP:      mcpHandler,
		Projects: svc,
		Health:   db,
		Auth:     transport.AuthMiddleware(keys),
	}))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{Server: server, DB: db, Service: svc, Keys: keys}
}

// AddAPIKey registers token as acting for userID.
func (ts *TestServer) AddAPIKey(t *testing.T, token, userID string) {
	t.Helper()
	require.NoError(t, ts.Keys.AddKey(context.Background(), token, userID, "test"))
}

// InsertTask seeds a task row; the service itself never writes tasks.
func (ts *TestServer) InsertTask(t *testing.T, id, projectID, status string, mandatory bool) {
	t.Helper()
	_, err := ts.DB.Exec(
		`INSERT INTO tasks (id, project_id, title, status, is_mandatory) VALUES (?, ?, ?, ?, ?)`,
		id, projectID, "Task "+id, status, mandatory,
	)
	require.NoError(t, err)
}

// SetTaskStatus changes a seeded task.
func (ts *TestServer) SetTaskStatus(t *testing.T, id, status string) {
	t.Helper()
	_, err := ts.DB.Exec(`UPDATE tasks SET status = ? WHERE id = ?`, status, id)
	require.NoError(t, err)
}

// Connect opens an MCP client session that authenticates with token.
func (ts *TestServer) Connect(t *testing.T, token string) *sdkmcp.ClientSession {
	t.Helper()
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{token: token}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearer struct {
	token string
}

func (b bearer) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return http.DefaultTransport.RoundTrip(r)
}
