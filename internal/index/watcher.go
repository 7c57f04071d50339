package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nordvang/varden/internal/storage"
)

// EventCallback is called after a watcher-driven vault change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

const renameSettle = 200 * time.Millisecond

// Watch runs an fsnotify watcher on the vault root until ctx is cancelled.
// Markdown changes are re-extracted into the index; attachment and track
// file changes only fire the callback, so the link resolver can pick them
// up. Directories created at runtime join the watch list, and rename events
// schedule a short reconciliation pass since fsnotify only reports the old
// path.
func Watch(ctx context.Context, db *DB, store storage.Provider, ex Extractor, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := watchTree(w, vaultRoot); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", vaultRoot))

	notify := func(kind, path string) {
		if cb != nil {
			cb(kind, path)
		}
	}

	var settle *time.Timer
	var settleCh <-chan time.Time
	scheduleReconcile := func() {
		if settle == nil {
			settle = time.NewTimer(renameSettle)
			settleCh = settle.C
			return
		}
		settle.Reset(renameSettle)
	}

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			reconcile(db, store, ex, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			handleEvent(w, db, store, ex, vaultRoot, ev, logger, notify, scheduleReconcile)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func handleEvent(w *fsnotify.Watcher, db *DB, store storage.Provider, ex Extractor, vaultRoot string, ev fsnotify.Event, logger *slog.Logger, notify EventCallback, scheduleReconcile func()) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := watchTree(w, ev.Name); err != nil {
				logger.Warn("watcher: add dir failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
			}
			indexTree(db, store, ex, vaultRoot, ev.Name, logger, notify)
			return
		}
	}

	rel, err := filepath.Rel(vaultRoot, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	// Dotfiles include our own atomic-write temp files.
	if strings.HasPrefix(filepath.Base(rel), ".") {
		return
	}

	// Attachments and track files are not indexed, but their appearance or
	// disappearance changes what wikilinks can resolve to.
	if !isNotePath(rel) {
		switch {
		case ev.Op&fsnotify.Create != 0:
			notify("created", rel)
		case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
			notify("deleted", rel)
		}
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		data, err := store.Read(rel)
		if err != nil {
			logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		if err := indexFile(db, ex, rel, data); err != nil {
			logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		kind := "updated"
		if ev.Op&fsnotify.Create != 0 {
			kind = "created"
		}
		logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
		notify(kind, rel)

	case ev.Op&fsnotify.Remove != 0:
		if err := db.DeleteNote(rel); err != nil {
			logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		logger.Debug("watcher: deleted", slog.String("path", rel))
		notify("deleted", rel)

	case ev.Op&fsnotify.Rename != 0:
		// Rename only reports the old path; the new one shows up as a
		// separate Create if it lands in a watched directory. Drop the old
		// entry now and reconcile shortly after for anything missed.
		if err := db.DeleteNote(rel); err != nil {
			logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		} else {
			logger.Debug("watcher: rename old deleted", slog.String("path", rel))
			notify("deleted", rel)
		}
		scheduleReconcile()
	}
}

// reconcile compares the index against the vault listing: stale entries are
// dropped and notes that changed or appeared while events were in flight are
// re-indexed.
func reconcile(db *DB, store storage.Provider, ex Extractor, logger *slog.Logger, notify EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		if isNotePath(m.Path) {
			disk[m.Path] = m.Checksum
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				notify("deleted", p)
			}
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, err := store.Read(p)
		if err != nil {
			continue
		}
		if err := indexFile(db, ex, p, data); err == nil {
			logger.Debug("reconcile: indexed", slog.String("path", p))
			notify("created", p)
		}
	}
}

// indexTree indexes the notes inside a directory that appeared as a whole,
// e.g. from a move into the vault.
func indexTree(db *DB, store storage.Provider, ex Extractor, vaultRoot, dir string, logger *slog.Logger, notify EventCallback) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !isNotePath(rel) {
			return nil
		}
		data, readErr := store.Read(rel)
		if readErr != nil {
			return nil
		}
		if idxErr := indexFile(db, ex, rel, data); idxErr == nil {
			logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
			notify("created", rel)
		}
		return nil
	})
}

// watchTree adds root and every non-hidden directory below it to the watcher.
func watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
