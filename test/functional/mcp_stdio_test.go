package functional_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// stdioSession wraps an MCP client session connected to the server binary.
type stdioSession struct {
	session *sdkmcp.ClientSession
	cancel  context.CancelFunc
}

func newStdioSession(t *testing.T) *stdioSession {
	t.Helper()
	return newStdioSessionWithEnv(t, nil)
}

func newStdioSessionWithEnv(t *testing.T, extraEnv []string) *stdioSession {
	t.Helper()

	binaryPath := "./bin/waypoint"
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		binaryPath = "../../bin/waypoint"
		if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
			t.Skip("Server binary not found. Run 'go build -o bin/waypoint ./cmd/server' first.")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = append(os.Environ(),
		"WAYPOINT_ENV_FILE="+filepath.Join(t.TempDir(), "none.env"),
		"WAYPOINT_TRANSPORT_MODE=stdio",
		"WAYPOINT_DB_PATH=:memory:",
		"WAYPOINT_DEFAULT_ACTOR=alice",
		"WAYPOINT_PROGRESS_SCHEDULE=",
	)
	cmd.Env = append(cmd.Env, extraEnv...)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		cancel()
		t.Fatalf("Failed to connect: %v", err)
	}

	t.Cleanup(func() {
		session.Close()
		cancel()
	})

	return &stdioSession{session: session, cancel: cancel}
}

func (s *stdioSession) callTool(t *testing.T, name string, args map[string]any) json.RawMessage {
	t.Helper()
	out, te := call(t, s.session, name, args)
	require.Nil(t, te, "tool %s failed: %+v", name, te)
	return out
}

func TestStdioFunctional_CreateAndList(t *testing.T) {
	s := newStdioSession(t)

	proj := decodeProject(t, s.callTool(t, "create_project", map[string]any{
		"name":            "Project",
		"organization_id": "org1",
	}))
	require.Equal(t, "alice", proj.OwnerID)

	var list struct {
		Projects []projectView `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(s.callTool(t, "list_projects", map[string]any{"organization_id": "org1"}), &list))
	require.Len(t, list.Projects, 1)
	require.Equal(t, proj.ID, list.Projects[0].ID)

	got := decodeProject(t, s.callTool(t, "get_project", map[string]any{"project_id": proj.ID}))
	require.Equal(t, "DRAFT", got.Status)
}

func TestStdioFunctional_MCPProtocolCompliance(t *testing.T) {
	s := newStdioSession(t)

	initResult := s.session.InitializeResult()
	require.NotNil(t, initResult)
	require.NotNil(t, initResult.ServerInfo)
	require.Equal(t, "waypoint", initResult.ServerInfo.Name)
	require.Equal(t, "0.1.0", initResult.ServerInfo.Version)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tools, err := s.session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 11)

	toolMap := make(map[string]*sdkmcp.Tool)
	for _, tool := range tools.Tools {
		toolMap[tool.Name] = tool
	}
	require.Contains(t, toolMap, "create_project")
	require.Contains(t, toolMap, "change_project_status")
	require.NotEmpty(t, toolMap["create_project"].Description)
	require.NotNil(t, toolMap["create_project"].InputSchema)
}

func TestStdioFunctional_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "waypoint.log")
	s := newStdioSessionWithEnv(t, []string{
		"WAYPOINT_LOG_PATH=" + logPath,
		"WAYPOINT_LOG_LEVEL=debug",
	})

	_ = s.callTool(t, "list_projects", map[string]any{"organization_id": "org1"})

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(logPath)
		if err != nil {
			return false
		}
		text := string(data)
		return strings.Contains(text, `msg="mcp traffic"`) &&
			strings.Contains(text, "stage=request") &&
			strings.Contains(text, "actor_id=alice")
	}, 5*time.Second, 100*time.Millisecond)
}

func TestStdioFunctional_MembersAndActivity(t *testing.T) {
	s := newStdioSession(t)

	proj := decodeProject(t, s.callTool(t, "create_project", map[string]any{"name": "Audit", "organization_id": "org1"}))
	s.callTool(t, "add_member", map[string]any{"project_id": proj.ID, "user_id": "bob", "role": "VIEWER"})

	_, te := call(t, s.session, "remove_member", map[string]any{"project_id": proj.ID, "user_id": "alice"})
	require.NotNil(t, te)
	require.Equal(t, "VALIDATION_ERROR", te.Code)

	s.callTool(t, "remove_member", map[string]any{"project_id": proj.ID, "user_id": "bob"})

	var members struct {
		Members []struct {
			UserID string `json:"user_id"`
		} `json:"members"`
	}
	require.NoError(t, json.Unmarshal(s.callTool(t, "list_members", map[string]any{"project_id": proj.ID}), &members))
	require.Len(t, members.Members, 1)

	// The dispatcher writes asynchronously.
	require.Eventually(t, func() bool {
		var act struct {
			Entries []struct {
				Type string `json:"type"`
			} `json:"entries"`
		}
		raw := s.callTool(t, "get_project_activity", map[string]any{"project_id": proj.ID})
		if err := json.Unmarshal(raw, &act); err != nil || len(act.Entries) != 3 {
			return false
		}
		return act.Entries[0].Type == "MEMBER_REMOVED"
	}, 5*time.Second, 100*time.Millisecond)
}

func TestStdioFunctional_DocumentationResources(t *testing.T) {
	s := newStdioSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resources, err := s.session.ListResources(ctx, nil)
	require.NoError(t, err)

	uris := make(map[string]*sdkmcp.Resource, len(resources.Resources))
	for _, r := range resources.Resources {
		uris[r.URI] = r
	}
	for _, uri := range []string{"waypoint://docs/lifecycle", "waypoint://docs/permissions"} {
		r, ok := uris[uri]
		require.True(t, ok, "missing expected doc resource: %s", uri)
		require.Equal(t, "text/markdown", r.MIMEType)
		require.Greater(t, r.Size, int64(0))
	}

	read, err := s.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "waypoint://docs/lifecycle"})
	require.NoError(t, err)
	require.NotEmpty(t, read.Contents)
	require.Contains(t, read.Contents[0].Text, "Project lifecycle")
}
