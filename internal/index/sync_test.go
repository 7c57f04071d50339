package index

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSync_IndexesOnlyNotes(t *testing.T) {
	vaultDir, store, db, ex := watcherTestEnv(t)
	writeFile(t, vaultDir, "a.md", "# Alpha\n")
	writeFile(t, vaultDir, "sub/b.md", "# Beta\n")
	writeFile(t, vaultDir, "attachments/ride.gpx", "<gpx/>")

	if err := Sync(db, store, ex, slog.Default()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	paths, err := db.AllPaths()
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("indexed paths = %v, want the two notes", paths)
	}
	if _, ok := paths["attachments/ride.gpx"]; ok {
		t.Error("track file was indexed")
	}
}

func TestSync_RemovesStaleEntries(t *testing.T) {
	vaultDir, store, db, ex := watcherTestEnv(t)
	writeFile(t, vaultDir, "keep.md", "stay")
	writeFile(t, vaultDir, "gone.md", "leave")

	if err := Sync(db, store, ex, slog.Default()); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if err := os.Remove(filepath.Join(vaultDir, "gone.md")); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, store, ex, slog.Default()); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	paths, err := db.AllPaths()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := paths["gone.md"]; ok {
		t.Error("stale entry survived sync")
	}
	if _, ok := paths["keep.md"]; !ok {
		t.Error("live entry removed")
	}
}

func TestSync_SkipsUnchangedFiles(t *testing.T) {
	vaultDir, store, db, ex := watcherTestEnv(t)
	writeFile(t, vaultDir, "a.md", "# Alpha\n")

	if err := Sync(db, store, ex, slog.Default()); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	before, err := db.GetChecksum("a.md")
	if err != nil {
		t.Fatal(err)
	}

	// Second pass with identical content leaves the row alone.
	if err := Sync(db, store, ex, slog.Default()); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	after, err := db.GetChecksum("a.md")
	if err != nil {
		t.Fatal(err)
	}
	if before == "" || before != after {
		t.Errorf("checksum changed across no-op sync: %q vs %q", before, after)
	}
}
