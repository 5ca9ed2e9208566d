package graph

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// explorationTopK is the size of the candidate pool an exploration step
// samples from.
const explorationTopK = 3

// SearchResult is a single search hit.
type SearchResult struct {
	// ID is the identifier of the matched node.
	ID string

	// Similarity is the raw query similarity, not biased by edge weights.
	Similarity float32

	// PathLength is the number of hops the traversal took before first
	// visiting the node.
	PathLength int
}

// candidate is a frontier entry during traversal. The score is the
// weight-biased similarity used for routing, not the raw similarity reported
// in results.
type candidate struct {
	slot  uint32
	score float32
	depth int
}

// Search runs a greedy best-first traversal from the entry points and returns
// up to k results ordered by descending raw similarity.
//
// Traversal is guided by edge-weight-biased similarity, so learned weights
// steer routing, but every visited node is re-scored against the query with
// the raw metric before ranking. The traversal stops on an exhausted frontier,
// a hop budget, or stagnation deep in the graph.
//
// Search mutates the graph: visit counters are incremented and a query record
// is appended to the history whenever the graph is non-empty.
func (g *Graph) Search(query []float32, k int, tags ...string) ([]SearchResult, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if len(query) == 0 {
		return nil, ErrEmptyVector
	}
	if len(g.byID) == 0 {
		return nil, nil
	}
	if g.dimension != 0 && len(query) != g.dimension {
		return nil, &ErrDimensionMismatch{Expected: g.dimension, Actual: len(query)}
	}

	visited := g.newVisitedSet()
	path := make([]string, 0, maxHops)

	frontier := make([]candidate, 0, len(g.entryPoints))
	for _, ep := range g.entryPoints {
		n := g.nodes[ep]
		if n == nil {
			continue
		}
		d, err := g.opts.Metric.Distance(query, n.vector)
		if err != nil {
			return nil, err
		}
		frontier = append(frontier, candidate{slot: ep, score: g.opts.Metric.Similarity(d)})
	}

	bestScore := float32(-1)

	for hops := 0; hops < maxHops && len(frontier) > 0; hops++ {
		sort.Slice(frontier, func(i, j int) bool {
			return frontier[i].score > frontier[j].score
		})

		// Mostly greedy; occasionally pick a random candidate from the top of
		// the frontier so traversal can escape a local neighborhood.
		pick := 0
		if len(frontier) >= 2 && g.rng.Float64() < g.opts.ExplorationRate {
			pick = g.rng.Intn(min(explorationTopK, len(frontier)))
		}

		cur := frontier[pick]
		frontier = append(frontier[:pick], frontier[pick+1:]...)

		if visited.Test(uint(cur.slot)) {
			continue
		}
		visited.Set(uint(cur.slot))

		n := g.nodes[cur.slot]
		n.visitCount++
		path = append(path, n.id)

		if cur.score > bestScore {
			bestScore = cur.score
		} else if cur.depth > stagnationDepth {
			break
		}

		for _, e := range n.edges {
			if visited.Test(uint(e.target)) {
				continue
			}
			tn := g.nodes[e.target]
			d, err := g.opts.Metric.Distance(query, tn.vector)
			if err != nil {
				return nil, err
			}
			frontier = append(frontier, candidate{
				slot:  e.target,
				score: g.opts.Metric.Similarity(d) * e.weight,
				depth: cur.depth + 1,
			})
		}
	}

	results, err := g.rankVisited(query, k, visited, path, tags)
	if err != nil {
		return nil, err
	}

	quality := 0.0
	if len(results) > 0 {
		quality = float64(results[0].Similarity)
	}

	resultIDs := make([]string, 0, len(results))
	for _, r := range results {
		resultIDs = append(resultIDs, r.ID)
	}

	q := make([]float32, len(query))
	copy(q, query)

	g.history.push(queryRecord{
		query:   q,
		path:    path,
		results: resultIDs,
		quality: quality,
	})

	return results, nil
}

// rankVisited re-scores the visited set against the query with the raw metric,
// applies tag filtering and returns the top k by descending similarity.
func (g *Graph) rankVisited(query []float32, k int, visited *bitset.BitSet, path []string, tags []string) ([]SearchResult, error) {
	hops := make(map[string]int, len(path))
	for i, id := range path {
		if _, ok := hops[id]; !ok {
			hops[id] = i
		}
	}

	results := make([]SearchResult, 0, visited.Count())

	for slot, ok := visited.NextSet(0); ok; slot, ok = visited.NextSet(slot + 1) {
		n := g.nodes[uint32(slot)]
		if n == nil {
			continue
		}
		if !g.matchesTags(uint32(slot), tags) {
			continue
		}
		d, err := g.opts.Metric.Distance(query, n.vector)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{
			ID:         n.id,
			Similarity: g.opts.Metric.Similarity(d),
			PathLength: hops[n.id],
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// matchesTags reports whether the slot carries every requested tag.
func (g *Graph) matchesTags(slot uint32, tags []string) bool {
	for _, tag := range tags {
		bm := g.tagIdx.bitmap(tag)
		if bm == nil || !bm.Contains(slot) {
			return false
		}
	}
	return true
}
