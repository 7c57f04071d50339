package vaultindex

import (
	"testing"

	"github.com/nordvang/varden/internal/models"
)

func buildIndex(paths ...string) *Index {
	files := make([]models.FileMetadata, len(paths))
	for i, p := range paths {
		files[i] = models.FileMetadata{Path: p, Type: "file"}
	}
	return Build(files)
}

func TestResolve_ExactName(t *testing.T) {
	idx := buildIndex("trips/Lofoten.md", "gear/tent.md")
	if got := idx.Resolve("Lofoten.md", ""); got != "trips/Lofoten.md" {
		t.Errorf("Resolve = %q", got)
	}
}

func TestResolve_StemWithoutExtension(t *testing.T) {
	idx := buildIndex("trips/Lofoten.md", "attachments/route.gpx")
	if got := idx.Resolve("lofoten", ""); got != "trips/Lofoten.md" {
		t.Errorf("stem resolve = %q", got)
	}
	if got := idx.Resolve("route", ""); got != "attachments/route.gpx" {
		t.Errorf("gpx stem resolve = %q", got)
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	idx := buildIndex("Trips/LOFOTEN.md")
	if got := idx.Resolve("lofoten", ""); got != "Trips/LOFOTEN.md" {
		t.Errorf("resolve = %q, want canonical casing preserved", got)
	}
}

func TestResolve_FullPath(t *testing.T) {
	idx := buildIndex("trips/lofoten.md")
	for _, target := range []string{"trips/lofoten.md", "trips/lofoten", "/trips/lofoten.md"} {
		if got := idx.Resolve(target, ""); got != "trips/lofoten.md" {
			t.Errorf("Resolve(%q) = %q", target, got)
		}
	}
}

func TestResolve_RelativeTakesPrecedence(t *testing.T) {
	idx := buildIndex("a/sibling.md", "b/sibling.md")
	got := idx.Resolve("./sibling.md", "a")
	if got != "a/sibling.md" {
		t.Errorf("relative resolve = %q, want a/sibling.md", got)
	}
	got = idx.Resolve("../b/sibling.md", "a")
	if got != "b/sibling.md" {
		t.Errorf("parent-relative resolve = %q, want b/sibling.md", got)
	}
}

func TestResolve_RelativeWithoutExtension(t *testing.T) {
	// Wikilinks typically omit .md; the relative form must still land on the
	// note file. Targets that carry an extension keep it.
	idx := buildIndex("trips/2026/day-1.md", "trips/2026/day-2.md")
	if got := idx.Resolve("./day-2", "trips/2026"); got != "trips/2026/day-2.md" {
		t.Errorf("extensionless relative resolve = %q, want trips/2026/day-2.md", got)
	}
	if got := idx.Resolve("../2026/day-2", "trips/2026"); got != "trips/2026/day-2.md" {
		t.Errorf("parent extensionless resolve = %q, want trips/2026/day-2.md", got)
	}
	if got := idx.Resolve("./photo.png", "trips/2026"); got != "trips/2026/photo.png" {
		t.Errorf("relative attachment resolve = %q, want trips/2026/photo.png", got)
	}
}

func TestResolve_ExactBeatsFuzzy(t *testing.T) {
	// "day" matches day.md exactly; the fuzzy candidates must not win.
	idx := buildIndex("day.md", "trips/someday.md", "trips/day-2.md")
	if got := idx.Resolve("day", ""); got != "day.md" {
		t.Errorf("resolve = %q, want exact match day.md", got)
	}
}

func TestResolve_LastSegmentRetry(t *testing.T) {
	// Target carries a folder that does not exist; the file name alone does.
	idx := buildIndex("notes/summit.md")
	if got := idx.Resolve("wrongdir/summit", ""); got != "notes/summit.md" {
		t.Errorf("last segment retry = %q", got)
	}
}

func TestResolve_FuzzyPartialPath(t *testing.T) {
	// No exact key matches any part of the target; the fuzzy pass matches a
	// key containing both the first and last target segments.
	idx := buildIndex("trips/2026/lofoten-day-1.md")
	if got := idx.Resolve("trips/2026/lofoten", ""); got != "trips/2026/lofoten-day-1.md" {
		t.Errorf("fuzzy partial = %q", got)
	}
}

func TestResolve_FuzzyDeterministic(t *testing.T) {
	// Two fuzzy candidates match the same target; the sorted key scan must
	// give the same winner on every build order.
	a := buildIndex("trips/alpha-summit.md", "trips/alpha-summit-2.md")
	b := buildIndex("trips/alpha-summit-2.md", "trips/alpha-summit.md")
	ra := a.Resolve("trips/summit", "")
	rb := b.Resolve("trips/summit", "")
	if ra != rb {
		t.Errorf("resolution depends on build order: %q vs %q", ra, rb)
	}
}

func TestResolve_AttachmentsShorthand(t *testing.T) {
	idx := buildIndex("vault/media/attachments/photo.png")
	if got := idx.Resolve("attachments/photo.png", ""); got != "vault/media/attachments/photo.png" {
		t.Errorf("attachments shorthand = %q", got)
	}
}

func TestResolve_NoMatch(t *testing.T) {
	idx := buildIndex("a.md")
	if got := idx.Resolve("nonexistent", ""); got != "" {
		t.Errorf("resolve = %q, want empty for no match", got)
	}
	if got := idx.Resolve("", ""); got != "" {
		t.Errorf("empty target = %q, want empty", got)
	}
}

func TestBuild_LaterEntryWins(t *testing.T) {
	idx := Build([]models.FileMetadata{
		{Path: "old/dup.md", Type: "file"},
		{Path: "new/dup.md", Type: "file"},
	})
	if got := idx.Resolve("dup", ""); got != "new/dup.md" {
		t.Errorf("resolve = %q, want later registration to win", got)
	}
}
