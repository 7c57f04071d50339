package index

import (
	"encoding/json"
	"fmt"

	"github.com/nordvang/varden/internal/models"
)

// MetadataIndex returns one entry per indexed note, ordered by path, with each
// note's outgoing links in insertion order. This is the input to the graph
// builders, so the ordering here determines node numbering.
func (db *DB) MetadataIndex() ([]models.MetadataEntry, error) {
	rows, err := db.conn.Query(`SELECT path, file_name, tags FROM notes ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: metadata: %w", err)
	}
	defer rows.Close()

	var entries []models.MetadataEntry
	for rows.Next() {
		var e models.MetadataEntry
		var tagsJSON string
		if err := rows.Scan(&e.RelativePath, &e.FileName, &tagsJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &e.Tags)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		links, err := db.noteLinks(entries[i].RelativePath)
		if err != nil {
			return nil, err
		}
		entries[i].Links = links
	}
	return entries, nil
}

func (db *DB) noteLinks(source string) ([]models.MetadataLink, error) {
	rows, err := db.conn.Query(`SELECT target FROM links WHERE source = ? ORDER BY rowid`, source)
	if err != nil {
		return nil, fmt.Errorf("index: note links: %w", err)
	}
	defer rows.Close()

	var out []models.MetadataLink
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, models.MetadataLink{RelativePath: t})
	}
	return out, rows.Err()
}
