package graph

import (
	"strings"

	"github.com/nordvang/varden/internal/models"
)

// FilterByTag returns the subgraph around one tag hub: the tag node, every
// directly connected node, and additionally the edges between two directly
// connected file nodes. An unknown tag yields an empty graph.
func FilterByTag(index []models.MetadataEntry, tag string) *Data {
	label := tag
	if !strings.HasPrefix(label, "#") {
		label = "#" + label
	}
	global := BuildGlobal(index)

	hub := -1
	for _, n := range global.Nodes {
		if n.Group == GroupTag && n.Label == label {
			hub = n.ID
			break
		}
	}
	if hub < 0 {
		return &Data{Nodes: []Node{}, Edges: []Edge{}}
	}

	connected := map[int]struct{}{hub: {}}
	var edges []Edge
	for _, e := range global.Edges {
		if e.From == hub || e.To == hub {
			connected[e.From] = struct{}{}
			connected[e.To] = struct{}{}
			edges = append(edges, e)
		}
	}

	isFile := make(map[int]bool, len(global.Nodes))
	for _, n := range global.Nodes {
		isFile[n.ID] = n.Group == GroupFile
	}
	for _, e := range global.Edges {
		if e.From == hub || e.To == hub {
			continue
		}
		_, fromIn := connected[e.From]
		_, toIn := connected[e.To]
		if fromIn && toIn && isFile[e.From] && isFile[e.To] {
			edges = append(edges, e)
		}
	}

	out := &Data{Nodes: []Node{}, Edges: edges}
	for _, n := range global.Nodes {
		if _, ok := connected[n.ID]; ok {
			out.Nodes = append(out.Nodes, n)
		}
	}
	return out
}
