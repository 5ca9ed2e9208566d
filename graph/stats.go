package graph

// Stats is a point-in-time summary of graph shape and learning state.
type Stats struct {
	// NodeCount is the number of indexed nodes.
	NodeCount int

	// EdgeCount is the total number of directed edges.
	EdgeCount int

	// AvgEdgesPerNode is EdgeCount divided by NodeCount, 0 for an empty graph.
	AvgEdgesPerNode float64

	// EntryPointCount is the size of the entry-point set.
	EntryPointCount int

	// QueryHistorySize is the number of records currently in the history ring.
	QueryHistorySize int

	// AvgNodeQuality is the mean of the per-node search quality averages.
	AvgNodeQuality float64
}

// Stats computes summary statistics. Values are derived fresh on every call,
// nothing is cached.
func (g *Graph) Stats() Stats {
	s := Stats{
		NodeCount:        len(g.byID),
		EntryPointCount:  len(g.entryPoints),
		QueryHistorySize: g.history.len(),
	}

	qualitySum := 0.0
	for _, n := range g.nodes {
		if n == nil {
			continue
		}
		s.EdgeCount += len(n.edges)
		qualitySum += n.avgQuality
	}

	if s.NodeCount > 0 {
		s.AvgEdgesPerNode = float64(s.EdgeCount) / float64(s.NodeCount)
		s.AvgNodeQuality = qualitySum / float64(s.NodeCount)
	}

	return s
}
