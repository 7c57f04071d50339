package index

import (
	"log/slog"
	"strings"

	"github.com/nordvang/varden/internal/checksum"
	"github.com/nordvang/varden/internal/markdown"
	"github.com/nordvang/varden/internal/storage"
)

// Extractor pulls title, tags, and resolved links out of markdown source.
// Satisfied by *markdown.Pipeline.
type Extractor interface {
	Extract(docPath string, source []byte) *markdown.Extraction
}

// Sync walks the vault and brings the index up to date:
//   - new/changed markdown files are extracted and upserted
//   - files removed from disk are deleted from the index
//
// Non-markdown vault files (attachments, track files) are never indexed;
// they only participate in link resolution.
func Sync(db *DB, store storage.Provider, ex Extractor, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		if !isNotePath(m.Path) {
			continue
		}
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, ex, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

func isNotePath(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".md")
}

// indexFile extracts data and upserts it into the DB.
func indexFile(db *DB, ex Extractor, path string, data []byte) error {
	res := ex.Extract(path, data)
	cs := checksum.Sum(data)

	row := NoteRow{
		Path:     path,
		Title:    res.Title,
		Checksum: cs,
		Tags:     res.Tags,
	}
	return db.UpsertNote(row, res.Body, res.Links)
}
