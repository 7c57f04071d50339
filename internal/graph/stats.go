package graph

import (
	"math"

	"github.com/nordvang/varden/internal/models"
)

// Statistics summarizes a built graph.
type Statistics struct {
	TotalNodes         int     `json:"totalNodes"`
	TotalEdges         int     `json:"totalEdges"`
	TagCount           int     `json:"tagCount"`
	OrphanedNodes      int     `json:"orphanedNodes"`
	AverageConnections float64 `json:"averageConnections"`
}

// BuildStatistics rebuilds the global graph and derives aggregate counts.
func BuildStatistics(index []models.MetadataEntry) Statistics {
	return Stats(BuildGlobal(index))
}

// Stats derives aggregate counts from an already built graph. Orphans are
// nodes absent from every edge; average connections is 2E/N rounded to two
// decimal places.
func Stats(g *Data) Statistics {
	s := Statistics{
		TotalNodes: len(g.Nodes),
		TotalEdges: len(g.Edges),
	}
	for _, n := range g.Nodes {
		if n.Group == GroupTag {
			s.TagCount++
		}
	}

	touched := make(map[int]struct{}, len(g.Nodes))
	for _, e := range g.Edges {
		touched[e.From] = struct{}{}
		touched[e.To] = struct{}{}
	}
	s.OrphanedNodes = len(g.Nodes) - len(touched)

	if len(g.Nodes) > 0 {
		avg := float64(2*len(g.Edges)) / float64(len(g.Nodes))
		s.AverageConnections = math.Round(avg*100) / 100
	}
	return s
}
