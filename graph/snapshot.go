package graph

import (
	"fmt"

	"github.com/hupe1980/routegraph/metric"
)

// EdgeState is the serializable form of an edge. Targets are identifiers, not
// slots, so a restored arena may lay nodes out differently.
type EdgeState struct {
	Target     string  `json:"target"`
	Weight     float32 `json:"weight"`
	Traversals uint64  `json:"traversals"`
	Success    float64 `json:"success"`
}

// NodeState is the serializable form of a node.
type NodeState struct {
	ID         string      `json:"id"`
	Vector     []float32   `json:"vector"`
	Edges      []EdgeState `json:"edges"`
	VisitCount uint64      `json:"visit_count"`
	AvgQuality float64     `json:"avg_quality"`
	Tags       []string    `json:"tags,omitempty"`
}

// RecordState is the serializable form of a query history record.
type RecordState struct {
	Query   []float32 `json:"query"`
	Path    []string  `json:"path"`
	Results []string  `json:"results"`
	Quality float64   `json:"quality"`
}

// State is the serializable form of the whole graph, including the
// configuration it was built with. FromState restores the configuration so a
// snapshot is self-describing; callers can still override single options.
type State struct {
	MaxEdges        int     `json:"max_edges"`
	NumEntryPoints  int     `json:"num_entry_points"`
	LearningRate    float32 `json:"learning_rate"`
	ExplorationRate float64 `json:"exploration_rate"`
	HistorySize     int     `json:"history_size"`
	Metric          string  `json:"metric"`

	Dimension   int           `json:"dimension"`
	Nodes       []NodeState   `json:"nodes"`
	EntryPoints []string      `json:"entry_points"`
	History     []RecordState `json:"history"`
}

// State captures the graph for serialization. Node order follows the arena
// but carries no slot numbers; identifiers are the only cross references.
func (g *Graph) State() State {
	s := State{
		MaxEdges:        g.opts.MaxEdges,
		NumEntryPoints:  g.opts.NumEntryPoints,
		LearningRate:    g.opts.LearningRate,
		ExplorationRate: g.opts.ExplorationRate,
		HistorySize:     g.opts.HistorySize,
		Metric:          g.opts.Metric.Name(),
		Dimension:       g.dimension,
		Nodes:           make([]NodeState, 0, len(g.byID)),
	}

	for _, n := range g.nodes {
		if n == nil {
			continue
		}

		ns := NodeState{
			ID:         n.id,
			Vector:     n.vector,
			Edges:      make([]EdgeState, 0, len(n.edges)),
			VisitCount: n.visitCount,
			AvgQuality: n.avgQuality,
			Tags:       n.tags,
		}

		for _, e := range n.edges {
			ns.Edges = append(ns.Edges, EdgeState{
				Target:     g.nodes[e.target].id,
				Weight:     e.weight,
				Traversals: e.traversals,
				Success:    e.success,
			})
		}

		s.Nodes = append(s.Nodes, ns)
	}

	for _, ep := range g.entryPoints {
		if g.nodes[ep] != nil {
			s.EntryPoints = append(s.EntryPoints, g.nodes[ep].id)
		}
	}

	for _, rec := range g.history.snapshot() {
		s.History = append(s.History, RecordState{
			Query:   rec.query,
			Path:    rec.path,
			Results: rec.results,
			Quality: rec.quality,
		})
	}

	return s
}

// FromState rebuilds a graph from a captured state.
//
// The stored configuration is applied first, then optFns, so callers can
// override individual options (typically the metric implementation or the
// random seed). Edges and entry points referencing identifiers that are not
// present in the state are dropped silently.
func FromState(s State, optFns ...func(o *Options)) (*Graph, error) {
	m, err := metricByName(s.Metric)
	if err != nil {
		return nil, err
	}

	base := func(o *Options) {
		o.MaxEdges = s.MaxEdges
		o.NumEntryPoints = s.NumEntryPoints
		o.LearningRate = s.LearningRate
		o.ExplorationRate = s.ExplorationRate
		o.HistorySize = s.HistorySize
		o.Metric = m
	}

	g := New(append([]func(o *Options){base}, optFns...)...)
	g.dimension = s.Dimension

	for _, ns := range s.Nodes {
		n := &node{
			id:         ns.ID,
			vector:     ns.Vector,
			visitCount: ns.VisitCount,
			avgQuality: ns.AvgQuality,
			tags:       ns.Tags,
		}
		slot := g.allocSlot(n)
		g.byID[ns.ID] = slot
		g.tagIdx.add(slot, ns.Tags)
	}

	for _, ns := range s.Nodes {
		n := g.nodes[g.byID[ns.ID]]
		for _, es := range ns.Edges {
			target, ok := g.byID[es.Target]
			if !ok {
				continue
			}
			n.edges = append(n.edges, edge{
				target:     target,
				weight:     es.Weight,
				traversals: es.Traversals,
				success:    es.Success,
			})
		}
	}

	for _, id := range s.EntryPoints {
		if slot, ok := g.byID[id]; ok {
			g.entryPoints = append(g.entryPoints, slot)
		}
	}

	for _, rs := range s.History {
		g.history.push(queryRecord{
			query:   rs.Query,
			path:    rs.Path,
			results: rs.Results,
			quality: rs.Quality,
		})
	}

	return g, nil
}

func metricByName(name string) (metric.Metric, error) {
	if name == "" {
		return DefaultOptions.Metric, nil
	}

	m, ok := metric.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown metric: %q", name)
	}

	return m, nil
}
