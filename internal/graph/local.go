package graph

import (
	"strings"

	"github.com/nordvang/varden/internal/models"
)

// BuildLocal builds the depth-limited neighborhood graph around one file.
// The global graph is rebuilt from the metadata index, the center node is
// located by a precision-first lookup ladder, and the neighborhood is
// expanded breadth-first for depth hops. An unlocatable center yields an
// empty graph.
func BuildLocal(index []models.MetadataEntry, filePath string, depth int) *Data {
	if depth < 1 {
		depth = 1
	}
	global := BuildGlobal(index)

	center := findCenter(global, filePath)
	if center < 0 {
		return &Data{Nodes: []Node{}, Edges: []Edge{}}
	}

	visited := map[int]struct{}{center: {}}
	frontier := []int{center}
	var edges []Edge

	recorded := func(e Edge) bool {
		for _, r := range edges {
			if (r.From == e.From && r.To == e.To) || (r.From == e.To && r.To == e.From) {
				return true
			}
		}
		return false
	}

	for hop := 0; hop < depth; hop++ {
		var next []int
		for _, id := range frontier {
			for _, e := range global.Edges {
				var other int
				switch id {
				case e.From:
					other = e.To
				case e.To:
					other = e.From
				default:
					continue
				}
				if _, seen := visited[other]; !seen {
					visited[other] = struct{}{}
					next = append(next, other)
					edges = append(edges, e)
					continue
				}
				// Both endpoints already explored: close the
				// triangle if the edge is new.
				if !recorded(e) {
					edges = append(edges, e)
				}
			}
		}
		frontier = next
	}

	out := &Data{Nodes: []Node{}, Edges: edges}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	for _, n := range global.Nodes {
		if _, ok := visited[n.ID]; ok {
			out.Nodes = append(out.Nodes, n)
		}
	}
	return out
}

// findCenter locates the node for a file path: exact title match, then
// file-name-only title match, then label match on the file name, then raw
// path match. Returns -1 when nothing matches.
func findCenter(g *Data, filePath string) int {
	title := stripExt(filePath)
	for _, n := range g.Nodes {
		if n.Group == GroupFile && n.Title == title {
			return n.ID
		}
	}

	name := filePath
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	nameTitle := stripExt(name)
	for _, n := range g.Nodes {
		if n.Group == GroupFile && stripNodeName(n.Title) == nameTitle {
			return n.ID
		}
	}
	for _, n := range g.Nodes {
		if n.Group == GroupFile && (n.Label == name || stripExt(n.Label) == nameTitle) {
			return n.ID
		}
	}
	for _, n := range g.Nodes {
		if n.Path == filePath {
			return n.ID
		}
	}
	return -1
}

func stripNodeName(title string) string {
	if i := strings.LastIndex(title, "/"); i >= 0 {
		return title[i+1:]
	}
	return title
}
