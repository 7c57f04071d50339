package noteservice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nordvang/varden/internal/apperr"
	"github.com/nordvang/varden/internal/markdown"
	"github.com/nordvang/varden/internal/testutil"
)

func testService(t *testing.T) *Service {
	t.Helper()
	db := testutil.TestDB(t)
	_, store := testutil.TestVault(t)
	svc := NewService(store, db)
	svc.SetPipeline(markdown.New(svc.Resolver, nil))
	return svc
}

func TestCreateGetDelete(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	created, err := svc.CreateNote(ctx, "a.md", []byte("# Alpha\n\nSee [[b]].\n"))
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if created.Title != "Alpha" {
		t.Errorf("title = %q", created.Title)
	}
	if len(created.Links) != 1 || created.Links[0] != "b" {
		t.Errorf("links = %v", created.Links)
	}

	if _, err := svc.CreateNote(ctx, "a.md", []byte("again")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create err = %v", err)
	}

	got, err := svc.GetNote(ctx, "a.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if !strings.Contains(got.Content, "See [[b]].") {
		t.Errorf("content = %q", got.Content)
	}
	if got.Checksum == "" || got.Checksum != created.Checksum {
		t.Errorf("checksum mismatch: %q vs %q", got.Checksum, created.Checksum)
	}

	if err := svc.DeleteNote(ctx, "a.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := svc.GetNote(ctx, "a.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete err = %v", err)
	}
}

func TestGetNote_Missing(t *testing.T) {
	svc := testService(t)
	if _, err := svc.GetNote(context.Background(), "nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateNote_OptimisticConcurrency(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	created, err := svc.CreateNote(ctx, "a.md", []byte("v1"))
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	if _, err := svc.UpdateNote(ctx, "a.md", []byte("v2"), "stale-checksum"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale update err = %v, want ErrConflict", err)
	}

	updated, err := svc.UpdateNote(ctx, "a.md", []byte("v2"), created.Checksum)
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if updated.Content != "v2" {
		t.Errorf("content = %q", updated.Content)
	}

	// An empty precondition skips the check.
	if _, err := svc.UpdateNote(ctx, "a.md", []byte("v3"), ""); err != nil {
		t.Errorf("unconditional update: %v", err)
	}
}

func TestRenderNote_LinksAndBacklinks(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	if _, err := svc.CreateNote(ctx, "target.md", []byte("# Target\n")); err != nil {
		t.Fatalf("create target: %v", err)
	}
	if _, err := svc.CreateNote(ctx, "source.md", []byte("Go read [[target]].\n")); err != nil {
		t.Fatalf("create source: %v", err)
	}

	rendered, err := svc.RenderNote(ctx, "source.md")
	if err != nil {
		t.Fatalf("RenderNote: %v", err)
	}
	if !strings.Contains(rendered.HTML, `href="/notes/target.md"`) {
		t.Errorf("link not resolved:\n%s", rendered.HTML)
	}

	bl, err := svc.Backlinks(ctx, "target.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 1 || bl[0] != "source.md" {
		t.Errorf("backlinks = %v", bl)
	}
}

func TestRenderNote_Missing(t *testing.T) {
	svc := testService(t)
	if _, err := svc.RenderNote(context.Background(), "nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListAndSearch(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	notes := map[string]string{
		"ride.md": "# Ride\n\nAn #alpine loop above the valley.\n",
		"prep.md": "# Prep\n\nGear list, no tags here.\n",
	}
	for path, body := range notes {
		if _, err := svc.CreateNote(ctx, path, []byte(body)); err != nil {
			t.Fatalf("create %s: %v", path, err)
		}
	}

	items, total, err := svc.ListNotes(ctx, 10, 0, "", "path")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("total = %d, items = %d", total, len(items))
	}
	if items[0].Path != "prep.md" || items[1].Path != "ride.md" {
		t.Errorf("order = %s, %s", items[0].Path, items[1].Path)
	}

	tagged, total, err := svc.ListNotes(ctx, 10, 0, "alpine", "")
	if err != nil {
		t.Fatalf("ListNotes tagged: %v", err)
	}
	if total != 1 || len(tagged) != 1 || tagged[0].Path != "ride.md" {
		t.Errorf("tagged = %+v, total = %d", tagged, total)
	}

	results, err := svc.Search(ctx, "valley", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "ride.md" {
		t.Errorf("results = %+v", results)
	}
}

func TestGraphViews(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	if _, err := svc.CreateNote(ctx, "b.md", []byte("Tagged #trip.\n")); err != nil {
		t.Fatalf("create b: %v", err)
	}
	if _, err := svc.CreateNote(ctx, "a.md", []byte("Links [[b]].\n")); err != nil {
		t.Fatalf("create a: %v", err)
	}

	g, err := svc.Graph(ctx)
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	// a, b, and the #trip hub; edges a-b and b-#trip.
	if len(g.Nodes) != 3 || len(g.Edges) != 2 {
		t.Errorf("graph = %d nodes, %d edges, want 3/2", len(g.Nodes), len(g.Edges))
	}

	local, err := svc.LocalGraph(ctx, "a.md", 1)
	if err != nil {
		t.Fatalf("LocalGraph: %v", err)
	}
	if len(local.Nodes) != 2 {
		t.Errorf("local nodes = %+v, want a and b", local.Nodes)
	}

	tg, err := svc.TagGraph(ctx, "trip")
	if err != nil {
		t.Fatalf("TagGraph: %v", err)
	}
	if len(tg.Nodes) != 2 {
		t.Errorf("tag graph nodes = %+v, want hub and b", tg.Nodes)
	}

	stats, err := svc.GraphStats(ctx)
	if err != nil {
		t.Fatalf("GraphStats: %v", err)
	}
	if stats.TotalNodes != 3 || stats.TotalEdges != 2 || stats.TagCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.OrphanedNodes != 0 {
		t.Errorf("orphanedNodes = %d", stats.OrphanedNodes)
	}
}
