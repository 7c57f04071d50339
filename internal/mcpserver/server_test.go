package mcpserver

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nordvang/varden/internal/index"
	"github.com/nordvang/varden/internal/markdown"
	"github.com/nordvang/varden/internal/noteservice"
	"github.com/nordvang/varden/internal/storage"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "varden-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	svc := noteservice.NewService(store, db)
	svc.SetPipeline(markdown.New(svc.Resolver, nil))

	srv := New(svc)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "render_note":
		result, err = srv.renderNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_graph":
		result, err = srv.getGraph(ctx, req)
	case "get_local_graph":
		result, err = srv.getLocalGraph(ctx, req)
	case "graph_statistics":
		result, err = srv.graphStatistics(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "test.md",
		"content": "# Test\nHello",
	})
	text := resultText(r)
	if text != "created: test.md" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{
		"path": "test.md",
	})
	text = resultText(r)
	if text != "# Test\nHello" {
		t.Errorf("read result = %q", text)
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t)
	for _, p := range []string{"a.md", "b.md"} {
		_ = callTool(t, srv, "create_note", map[string]interface{}{
			"path": p, "content": "# " + p,
		})
	}

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "a.md") || !strings.Contains(text, "b.md") {
		t.Errorf("list = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "b.md",
		"content": "# B",
	})
	_ = callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "a.md",
		"content": "links to [[b]]",
	})

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "b.md"})
	text := resultText(r)
	if text != "a.md" {
		t.Errorf("backlinks = %q, want a.md", text)
	}
}

func TestRenderNoteTool(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "page.md",
		"content": "hello #world",
	})

	r := callTool(t, srv, "render_note", map[string]interface{}{"path": "page.md"})
	text := resultText(r)
	if !strings.Contains(text, `"html"`) {
		t.Errorf("render result missing html field: %q", text)
	}
}

func TestGraphTools(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{
		"path": "a.md", "content": "see [[b]]",
	})
	_ = callTool(t, srv, "create_note", map[string]interface{}{
		"path": "b.md", "content": "# B",
	})

	r := callTool(t, srv, "get_graph", map[string]interface{}{})
	if !strings.Contains(resultText(r), `"nodes"`) {
		t.Errorf("graph = %q", resultText(r))
	}

	r = callTool(t, srv, "get_local_graph", map[string]interface{}{"path": "a.md"})
	if !strings.Contains(resultText(r), `"nodes"`) {
		t.Errorf("local graph = %q", resultText(r))
	}

	r = callTool(t, srv, "graph_statistics", map[string]interface{}{})
	if !strings.Contains(resultText(r), "totalNodes") {
		t.Errorf("stats = %q", resultText(r))
	}
}
