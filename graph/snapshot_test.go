package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	g := New(seeded(13), func(o *Options) { o.MaxEdges = 32 })
	vecs := buildRing(t, g, 12, 8)

	for i := 0; i < 5; i++ {
		_, err := g.Search(vecs[i], 3)
		require.NoError(t, err)
	}
	g.Learn()

	state := g.State()
	assert.Equal(t, "cosine", state.Metric)
	assert.Equal(t, 8, state.Dimension)
	assert.Len(t, state.Nodes, 12)
	assert.Len(t, state.History, 5)

	restored, err := FromState(state, seeded(13))
	require.NoError(t, err)

	assert.Equal(t, g.Len(), restored.Len())
	assert.Equal(t, g.Dimension(), restored.Dimension())
	assert.Equal(t, g.EntryPointCount(), restored.EntryPointCount())
	assert.Equal(t, g.HistoryLen(), restored.HistoryLen())
	assert.Equal(t, g.Stats(), restored.Stats())

	for i := 0; i < 12; i++ {
		id := state.Nodes[i].ID
		orig, ok := g.Get(id)
		require.True(t, ok)
		copied, ok := restored.Get(id)
		require.True(t, ok)
		assert.Equal(t, orig, copied)
	}

	// The restored graph keeps working.
	results, err := restored.Search(vecs[2], 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "node-2", results[0].ID)
}

func TestStateEmptyGraph(t *testing.T) {
	g := New(seeded(13))
	state := g.State()

	restored, err := FromState(state)
	require.NoError(t, err)
	assert.True(t, restored.IsEmpty())
	assert.Zero(t, restored.Dimension())
}

func TestFromStateUnknownMetric(t *testing.T) {
	_, err := FromState(State{Metric: "hamming"})
	require.Error(t, err)
}

func TestFromStateDropsDanglingReferences(t *testing.T) {
	state := State{
		MaxEdges:        DefaultMaxEdges,
		NumEntryPoints:  DefaultNumEntryPoints,
		LearningRate:    DefaultLearningRate,
		ExplorationRate: 0,
		HistorySize:     DefaultHistorySize,
		Metric:          "cosine",
		Dimension:       2,
		Nodes: []NodeState{
			{
				ID:     "a",
				Vector: []float32{1, 0},
				Edges: []EdgeState{
					{Target: "gone", Weight: 1},
					{Target: "b", Weight: 0.5},
				},
			},
			{ID: "b", Vector: []float32{0, 1}},
		},
		EntryPoints: []string{"gone", "a"},
	}

	g, err := FromState(state)
	require.NoError(t, err)

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 1, g.EntryPointCount())

	a, ok := g.Get("a")
	require.True(t, ok)
	require.Len(t, a.Edges, 1)
	assert.Equal(t, "b", a.Edges[0].Target)
}

func TestFromStateRestoresTags(t *testing.T) {
	g := New(seeded(13))
	require.NoError(t, g.Insert("a", []float32{1, 0}, "docs", "v1"))
	require.NoError(t, g.Insert("b", []float32{0, 1}, "docs"))

	restored, err := FromState(g.State(), seeded(13))
	require.NoError(t, err)

	results, err := restored.Search([]float32{1, 0}, 5, "v1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}
