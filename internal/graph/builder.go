// Package graph derives the corpus link graph from the metadata index: file
// and tag nodes, deduplicated undirected edges, and the local/tag-filtered
// views the viewer renders.
package graph

import (
	"strings"

	"github.com/nordvang/varden/internal/models"
)

// Node groups.
const (
	GroupFile = "file"
	GroupTag  = "tag"
)

// Node is one graph node. IDs are dense, assigned in metadata-iteration
// order during one construction run, and not stable across rebuilds. Title
// holds the extension-stripped canonical path for file nodes and doubles as
// the join key for edge resolution.
type Node struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
	Path  string `json:"path,omitempty"`
	Group string `json:"group"`
	Value int    `json:"value"`
}

// Edge is an undirected connection stored as a single directed pair.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Data is a complete graph.
type Data struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// BuildGlobal constructs the full corpus graph from the metadata index.
//
// Pass 1 creates one file node per self-consistent entry, interleaved with
// tag nodes on first occurrence, and adds file–tag edges. Pass 2 adds link
// edges between file nodes, dropping attachment targets, unresolvable
// endpoints, and duplicate unordered pairs. Pass 3 tallies each node's
// connection count.
func BuildGlobal(index []models.MetadataEntry) *Data {
	g := &Data{Nodes: []Node{}, Edges: []Edge{}}

	// Titles present in the index; entries whose stripped path is missing
	// here are stale and skipped.
	known := make(map[string]struct{}, len(index))
	for _, entry := range index {
		if entry.RelativePath == "" {
			continue
		}
		known[stripExt(entry.RelativePath)] = struct{}{}
	}

	byTitle := make(map[string]int)
	tagByLabel := make(map[string]int)

	for _, entry := range index {
		if entry.RelativePath == "" {
			continue
		}
		title := stripExt(entry.RelativePath)
		if _, ok := known[title]; !ok {
			continue
		}

		fileID := len(g.Nodes)
		g.Nodes = append(g.Nodes, Node{
			ID:    fileID,
			Label: entry.FileName,
			Title: title,
			Path:  entry.RelativePath,
			Group: GroupFile,
		})
		byTitle[title] = fileID

		for _, tag := range entry.Tags {
			label := tag
			if !strings.HasPrefix(label, "#") {
				label = "#" + label
			}
			tagID, ok := tagByLabel[label]
			if !ok {
				tagID = len(g.Nodes)
				g.Nodes = append(g.Nodes, Node{
					ID:    tagID,
					Label: label,
					Title: label,
					Group: GroupTag,
				})
				tagByLabel[label] = tagID
			}
			g.addEdge(fileID, tagID)
		}
	}

	for _, entry := range index {
		if entry.RelativePath == "" {
			continue
		}
		fromID, ok := byTitle[stripExt(entry.RelativePath)]
		if !ok {
			continue
		}
		for _, link := range entry.Links {
			if isAttachmentPath(link.RelativePath) {
				continue
			}
			toID, ok := byTitle[stripExt(link.RelativePath)]
			if !ok {
				continue
			}
			g.addEdge(fromID, toID)
		}
	}

	for _, e := range g.Edges {
		g.Nodes[e.From].Value++
		g.Nodes[e.To].Value++
	}

	return g
}

// addEdge appends an edge unless the same unordered pair already exists.
func (g *Data) addEdge(from, to int) {
	for _, e := range g.Edges {
		if (e.From == from && e.To == to) || (e.From == to && e.To == from) {
			return
		}
	}
	g.Edges = append(g.Edges, Edge{From: from, To: to})
}

// stripExt removes a trailing file extension from a vault path.
func stripExt(p string) string {
	if i := strings.LastIndex(p, "."); i > strings.LastIndex(p, "/") {
		return p[:i]
	}
	return p
}

// isAttachmentPath reports whether the path points into an Attachments
// segment; attachments are not graph-linkable.
func isAttachmentPath(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasPrefix(lower, "attachments/") || strings.Contains(lower, "/attachments/")
}
