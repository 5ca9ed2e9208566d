// Package graph implements a self-organizing approximate nearest-neighbor graph
// with online learning.
//
// Nodes live in an arena of stable integer slots with a free list for removal;
// the public string identifier is a lookup key into the arena via a secondary
// id-to-slot map. Edges reference slots, never pointers, and inbound edges are
// swept on removal so that a live edge never dangles.
//
// The graph has no internal synchronization. Search is not a read-only
// operation (it mutates visit counters and appends to the query history), so
// callers that share a graph across goroutines must serialize all access.
// The routegraph facade does exactly that.
package graph

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/routegraph/metric"
)

const (
	// DefaultMaxEdges is the default cap on outgoing edges per node.
	DefaultMaxEdges = 16

	// DefaultNumEntryPoints is the default size of the search entry-point set.
	DefaultNumEntryPoints = 4

	// DefaultLearningRate is the default step size for edge reinforcement.
	DefaultLearningRate = 0.1

	// DefaultExplorationRate is the default probability of deviating from the
	// greedy choice during search.
	DefaultExplorationRate = 0.1

	// DefaultHistorySize is the default capacity of the query history ring.
	DefaultHistorySize = 100

	// maxHops bounds the search loop; termination is guaranteed by this budget.
	maxHops = 100

	// stagnationDepth is the depth beyond which a non-improving visit stops the search.
	stagnationDepth = 10

	// entryReplaceProbability is the admission probability for replacing a
	// random entry point once the set is full.
	entryReplaceProbability = 0.1

	// minEdgeWeight and maxEdgeWeight clamp weights touched by learning.
	minEdgeWeight = 0.1
	maxEdgeWeight = 5.0

	// parallelScanThreshold is the node count above which the insertion
	// distance sweep fans out across goroutines.
	parallelScanThreshold = 2048
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrEmptyVector is returned when an empty embedding is inserted or queried.
	ErrEmptyVector = errors.New("empty vector")
)

// ErrDimensionMismatch is a named error type for dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Options represents the options for configuring the routing graph.
// The configuration is immutable after construction.
type Options struct {
	// MaxEdges caps the number of outgoing edges per node.
	MaxEdges int

	// NumEntryPoints bounds the entry-point set used to seed searches.
	NumEntryPoints int

	// LearningRate is the step size for edge reinforcement and weakening.
	LearningRate float32

	// ExplorationRate is the probability of picking a random candidate among
	// the top 3 instead of the best one during search.
	ExplorationRate float64

	// HistorySize is the capacity of the query history ring.
	HistorySize int

	// Metric computes distances and similarity scores.
	Metric metric.Metric

	// RandomSeed seeds the graph-owned random source for reproducible
	// exploration and entry-point churn. If nil, a time-based seed is used.
	RandomSeed *int64
}

// DefaultOptions holds the default configuration.
var DefaultOptions = Options{
	MaxEdges:        DefaultMaxEdges,
	NumEntryPoints:  DefaultNumEntryPoints,
	LearningRate:    DefaultLearningRate,
	ExplorationRate: DefaultExplorationRate,
	HistorySize:     DefaultHistorySize,
	Metric:          metric.Cosine{},
}

// Graph is a self-organizing ANN routing graph with online learning.
type Graph struct {
	opts Options

	// dimension is fixed by the first inserted node; 0 means unlocked.
	dimension int

	nodes       []*node // arena; nil marks a free slot
	free        []uint32
	byID        map[string]uint32
	entryPoints []uint32

	history *historyRing
	tagIdx  *tagIndex

	rng *rand.Rand
}

// New creates a new routing graph.
func New(optFns ...func(o *Options)) *Graph {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxEdges < 1 {
		opts.MaxEdges = DefaultMaxEdges
	}
	if opts.NumEntryPoints < 1 {
		opts.NumEntryPoints = DefaultNumEntryPoints
	}
	if opts.HistorySize < 1 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.Metric == nil {
		opts.Metric = DefaultOptions.Metric
	}

	var rng *rand.Rand
	if opts.RandomSeed != nil {
		rng = rand.New(rand.NewSource(*opts.RandomSeed)) // nolint gosec
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) // nolint gosec
	}

	return &Graph{
		opts:    opts,
		byID:    make(map[string]uint32),
		history: newHistoryRing(opts.HistorySize),
		tagIdx:  newTagIndex(),
		rng:     rng,
	}
}

// Options returns the immutable configuration.
func (g *Graph) Options() Options {
	return g.opts
}

// Dimension returns the embedding dimension, or 0 if no node was inserted yet.
func (g *Graph) Dimension() int {
	return g.dimension
}

// Len returns the number of distinct indexed nodes.
func (g *Graph) Len() int {
	return len(g.byID)
}

// IsEmpty reports whether the graph holds no nodes.
func (g *Graph) IsEmpty() bool {
	return len(g.byID) == 0
}

// EntryPointCount returns the current size of the entry-point set.
func (g *Graph) EntryPointCount() int {
	return len(g.entryPoints)
}

// HistoryLen returns the number of records in the query history ring.
func (g *Graph) HistoryLen() int {
	return g.history.len()
}

// Clear resets the graph to its empty state with no dimension locked.
func (g *Graph) Clear() {
	g.dimension = 0
	g.nodes = g.nodes[:0]
	g.free = g.free[:0]
	g.byID = make(map[string]uint32)
	g.entryPoints = g.entryPoints[:0]
	g.history.reset()
	g.tagIdx.reset()
}

// scanCandidate pairs a slot with its raw distance to a probe vector.
type scanCandidate struct {
	slot uint32
	dist float64
}

// Insert adds a node to the graph and wires it to its nearest neighbors.
//
// The first inserted node fixes the embedding dimension; later inserts with a
// different dimension are rejected with ErrDimensionMismatch. Re-inserting an
// existing id replaces the node wholesale: the old node is removed first
// (including its inbound edges), so no edge can dangle afterwards.
func (g *Graph) Insert(id string, vector []float32, tags ...string) error {
	if len(vector) == 0 {
		return ErrEmptyVector
	}

	if g.dimension == 0 {
		g.dimension = len(vector)
	} else if len(vector) != g.dimension {
		return &ErrDimensionMismatch{Expected: g.dimension, Actual: len(vector)}
	}

	if slot, ok := g.byID[id]; ok {
		g.removeSlot(slot)
	}

	neighbors, err := g.nearestNeighbors(vector, g.opts.MaxEdges)
	if err != nil {
		return err
	}

	vec := make([]float32, len(vector))
	copy(vec, vector)

	n := &node{
		id:     id,
		vector: vec,
		tags:   append([]string(nil), tags...),
	}

	slot := g.allocSlot(n)
	g.byID[id] = slot
	g.tagIdx.add(slot, n.tags)

	// Bidirectional wiring: the forward edge is unconditional, the reverse
	// edge respects the neighbor's cap.
	for _, nb := range neighbors {
		n.edges = append(n.edges, edge{
			target: nb.slot,
			weight: float32(1.0 / (1.0 + nb.dist)),
		})

		nbNode := g.nodes[nb.slot]
		if len(nbNode.edges) < g.opts.MaxEdges {
			nbNode.edges = append(nbNode.edges, edge{
				target: slot,
				weight: float32(1.0 / (1.0 + nb.dist)),
			})
		}
	}

	// Lossy randomized entry-point admission.
	if len(g.entryPoints) < g.opts.NumEntryPoints {
		g.entryPoints = append(g.entryPoints, slot)
	} else if g.rng.Float64() < entryReplaceProbability {
		g.entryPoints[g.rng.Intn(len(g.entryPoints))] = slot
	}

	return nil
}

func (g *Graph) allocSlot(n *node) uint32 {
	if len(g.free) > 0 {
		slot := g.free[len(g.free)-1]
		g.free = g.free[:len(g.free)-1]
		g.nodes[slot] = n
		return slot
	}

	g.nodes = append(g.nodes, n)
	return uint32(len(g.nodes) - 1)
}

// nearestNeighbors scans every live node and returns up to limit slots sorted
// by ascending distance. The scan fans out across goroutines for large graphs;
// the result is deterministic either way because distances are sorted after
// collection.
func (g *Graph) nearestNeighbors(vector []float32, limit int) ([]scanCandidate, error) {
	if len(g.byID) == 0 || limit < 1 {
		return nil, nil
	}

	candidates := make([]scanCandidate, 0, len(g.byID))

	if len(g.nodes) < parallelScanThreshold {
		for slot, n := range g.nodes {
			if n == nil {
				continue
			}
			d, err := g.opts.Metric.Distance(vector, n.vector)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, scanCandidate{slot: uint32(slot), dist: d})
		}
	} else {
		workers := runtime.GOMAXPROCS(0)
		chunk := (len(g.nodes) + workers - 1) / workers
		parts := make([][]scanCandidate, workers)

		var eg errgroup.Group
		for w := 0; w < workers; w++ {
			w := w
			lo := w * chunk
			hi := min(lo+chunk, len(g.nodes))
			if lo >= hi {
				break
			}
			eg.Go(func() error {
				part := make([]scanCandidate, 0, hi-lo)
				for slot := lo; slot < hi; slot++ {
					n := g.nodes[slot]
					if n == nil {
						continue
					}
					d, err := g.opts.Metric.Distance(vector, n.vector)
					if err != nil {
						return err
					}
					part = append(part, scanCandidate{slot: uint32(slot), dist: d})
				}
				parts[w] = part
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		for _, part := range parts {
			candidates = append(candidates, part...)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

// Remove deletes a node and reports whether it was present.
//
// On success the id is stripped from the entry-point set and every inbound
// edge across the graph is deleted.
func (g *Graph) Remove(id string) bool {
	slot, ok := g.byID[id]
	if !ok {
		return false
	}
	g.removeSlot(slot)
	return true
}

func (g *Graph) removeSlot(slot uint32) {
	n := g.nodes[slot]

	g.tagIdx.remove(slot, n.tags)
	delete(g.byID, n.id)
	g.nodes[slot] = nil
	g.free = append(g.free, slot)

	for i, ep := range g.entryPoints {
		if ep == slot {
			g.entryPoints = append(g.entryPoints[:i], g.entryPoints[i+1:]...)
			break
		}
	}

	// Inbound sweep: a live edge must never target a freed slot.
	for _, other := range g.nodes {
		if other == nil {
			continue
		}
		kept := other.edges[:0]
		for _, e := range other.edges {
			if e.target != slot {
				kept = append(kept, e)
			}
		}
		other.edges = kept
	}

	// Keep searches seedable: if the last entry point vanished while nodes
	// remain, promote an arbitrary survivor.
	if len(g.entryPoints) == 0 && len(g.byID) > 0 {
		for s, other := range g.nodes {
			if other != nil {
				g.entryPoints = append(g.entryPoints, uint32(s))
				break
			}
		}
	}
}

// Get returns a read-only snapshot of a node, or false if the id is unknown.
func (g *Graph) Get(id string) (NodeSnapshot, bool) {
	slot, ok := g.byID[id]
	if !ok {
		return NodeSnapshot{}, false
	}

	n := g.nodes[slot]

	edges := make([]EdgeSnapshot, 0, len(n.edges))
	for _, e := range n.edges {
		edges = append(edges, EdgeSnapshot{
			Target:         g.nodes[e.target].id,
			Weight:         e.weight,
			TraversalCount: e.traversals,
			SuccessRate:    e.success,
		})
	}

	vec := make([]float32, len(n.vector))
	copy(vec, n.vector)

	return NodeSnapshot{
		ID:               n.id,
		Vector:           vec,
		Edges:            edges,
		VisitCount:       n.visitCount,
		AvgSearchQuality: n.avgQuality,
		Tags:             append([]string(nil), n.tags...),
	}, true
}

// visitedSet wraps a bitset sized to the arena.
func (g *Graph) newVisitedSet() *bitset.BitSet {
	return bitset.New(uint(len(g.nodes)))
}
