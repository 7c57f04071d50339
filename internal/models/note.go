// Package models defines the domain types for Varden.
package models

import "time"

// Note represents a parsed Markdown file in the vault.
type Note struct {
	Path        string                 `json:"path"`
	Content     []byte                 `json:"-"`
	Body        string                 `json:"body"`
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Links       []string               `json:"links,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Checksum    string                 `json:"checksum"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// FileMetadata is a lightweight representation returned by storage listings.
// Type is "file" for every regular vault file; directories are never listed.
type FileMetadata struct {
	Path      string    `json:"path"`
	Type      string    `json:"type"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link represents a directed reference from one note to another vault path.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"` // "wikilink" or "embed"
}

// MetadataEntry is one record of the corpus-wide metadata index consumed by
// the graph builder: the vault-relative path, the bare file name, the note's
// tags, and its outgoing links, all in indexing order.
type MetadataEntry struct {
	RelativePath string         `json:"relativePath"`
	FileName     string         `json:"fileName"`
	Tags         []string       `json:"tags"`
	Links        []MetadataLink `json:"links"`
}

// MetadataLink is an outgoing link inside a MetadataEntry.
type MetadataLink struct {
	RelativePath string `json:"relativePath"`
}
