package graph

const (
	// qualityThreshold separates searches that reinforce edges from searches
	// that weaken them.
	qualityThreshold = 0.5

	// emaDecay is the retention factor of the exponential moving averages kept
	// on edges and nodes.
	emaDecay = 0.9

	// pruneWeightThreshold and pruneMinTraversals gate edge pruning. An edge
	// is removed only when its weight decayed to the threshold and enough
	// traversals back the verdict.
	pruneWeightThreshold = 0.2
	pruneMinTraversals   = 10

	// shortcutQualityThreshold selects the records whose result sets feed
	// shortcut synthesis.
	shortcutQualityThreshold = 0.7

	// shortcutMinCooccurrence is the co-occurrence count a result pair must
	// exceed before a shortcut edge is synthesized between the two nodes.
	shortcutMinCooccurrence = 5

	// shortcutWeight is the initial weight of a synthesized shortcut edge.
	shortcutWeight = 1.0
)

// LearnReport summarizes one adaptation pass.
type LearnReport struct {
	// Records is the number of history records the pass consumed.
	Records int

	// Reinforced and Weakened count edge weight updates.
	Reinforced int
	Weakened   int

	// Pruned counts removed low-value edges.
	Pruned int

	// Shortcuts counts synthesized edges between frequently co-retrieved nodes.
	Shortcuts int
}

// Learn replays the query history and adapts the graph topology.
//
// Edges along high-quality search paths are reinforced, edges along
// low-quality paths are weakened, persistently weak edges are pruned, and
// shortcut edges are synthesized between nodes that keep showing up in the
// same high-quality result sets. The history is left intact; the ring evicts
// records on its own as new searches arrive.
//
// The pass is idempotent per history state only in topology terms, not in
// weights: calling Learn twice replays the same records twice.
func (g *Graph) Learn() LearnReport {
	records := g.history.snapshot()

	report := LearnReport{Records: len(records)}

	for _, rec := range records {
		g.adaptPath(rec, &report)
	}

	report.Pruned = g.pruneEdges()
	report.Shortcuts = g.synthesizeShortcuts(records)

	return report
}

// adaptPath updates edge weights and node quality along one recorded path.
//
// Removed nodes are skipped by id lookup; a recorded path may reference nodes
// that no longer exist, and slots are never trusted across searches.
func (g *Graph) adaptPath(rec queryRecord, report *LearnReport) {
	lr := g.opts.LearningRate
	q := rec.quality

	for i := 0; i+1 < len(rec.path); i++ {
		fromSlot, ok := g.byID[rec.path[i]]
		if !ok {
			continue
		}
		toSlot, ok := g.byID[rec.path[i+1]]
		if !ok {
			continue
		}

		e := g.nodes[fromSlot].edgeTo(toSlot)
		if e == nil {
			continue
		}

		if q > qualityThreshold {
			e.weight = min(maxEdgeWeight, e.weight+lr*float32(q))
			report.Reinforced++
		} else {
			e.weight = max(minEdgeWeight, e.weight-lr*float32(1.0-q))
			report.Weakened++
		}

		// Weakened edges keep accumulating traversals too, so a consistently
		// bad edge can reach the pruning threshold.
		e.traversals++
		e.success = emaDecay*e.success + (1-emaDecay)*q
	}

	for _, id := range rec.path {
		slot, ok := g.byID[id]
		if !ok {
			continue
		}
		n := g.nodes[slot]
		n.avgQuality = emaDecay*n.avgQuality + (1-emaDecay)*q
	}
}

// pruneEdges drops edges whose weight decayed to the floor of usefulness and
// that have enough traversals to judge. Returns the number of removed edges.
func (g *Graph) pruneEdges() int {
	pruned := 0

	for _, n := range g.nodes {
		if n == nil {
			continue
		}
		kept := n.edges[:0]
		for _, e := range n.edges {
			if e.weight <= pruneWeightThreshold && e.traversals >= pruneMinTraversals {
				pruned++
				continue
			}
			kept = append(kept, e)
		}
		n.edges = kept
	}

	return pruned
}

// synthesizeShortcuts adds direct edges between nodes that co-occur in the
// result sets of high-quality searches more than shortcutMinCooccurrence
// times. Returns the number of edges added.
func (g *Graph) synthesizeShortcuts(records []queryRecord) int {
	pairs := make(map[[2]string]int)

	for _, rec := range records {
		if rec.quality <= shortcutQualityThreshold {
			continue
		}
		for i := 0; i < len(rec.results); i++ {
			for j := i + 1; j < len(rec.results); j++ {
				a, b := rec.results[i], rec.results[j]
				if a > b {
					a, b = b, a
				}
				pairs[[2]string{a, b}]++
			}
		}
	}

	added := 0

	for pair, count := range pairs {
		if count <= shortcutMinCooccurrence {
			continue
		}

		fromSlot, ok := g.byID[pair[0]]
		if !ok {
			continue
		}
		toSlot, ok := g.byID[pair[1]]
		if !ok {
			continue
		}

		from := g.nodes[fromSlot]
		if from.edgeTo(toSlot) != nil {
			continue
		}
		if len(from.edges) >= g.opts.MaxEdges {
			continue
		}

		from.edges = append(from.edges, edge{target: toSlot, weight: shortcutWeight})
		added++
	}

	return added
}
