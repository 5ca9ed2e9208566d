package graph

// edge is a directed, weighted link to another node, addressed by arena slot.
//
// Edges are weak references: removal of the target node sweeps inbound edges,
// so a live edge never dangles.
type edge struct {
	target     uint32
	weight     float32
	traversals uint64
	success    float64
}

// node is the arena representation of an indexed item.
type node struct {
	id         string
	vector     []float32
	edges      []edge
	visitCount uint64
	avgQuality float64
	tags       []string
}

func (n *node) edgeTo(target uint32) *edge {
	for i := range n.edges {
		if n.edges[i].target == target {
			return &n.edges[i]
		}
	}
	return nil
}

// EdgeSnapshot is a read-only view of an outgoing edge.
type EdgeSnapshot struct {
	// Target is the identifier of the edge target.
	Target string

	// Weight is the learned edge weight.
	Weight float32

	// TraversalCount is the number of learning passes that touched this edge.
	TraversalCount uint64

	// SuccessRate is the exponentially blended quality of traversals over this edge.
	SuccessRate float64
}

// NodeSnapshot is a read-only view of an indexed node.
type NodeSnapshot struct {
	// ID is the identifier of the node.
	ID string

	// Vector is a copy of the node's embedding.
	Vector []float32

	// Edges are the node's outgoing edges.
	Edges []EdgeSnapshot

	// VisitCount is the number of times search visited this node.
	VisitCount uint64

	// AvgSearchQuality is the exponentially blended quality of searches whose
	// path included this node.
	AvgSearchQuality float64

	// Tags are the node's filter tags.
	Tags []string
}
