package graph

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ringVectors returns n unit vectors spread over a circle embedded in dim
// dimensions. Neighbors on the ring are nearest neighbors in cosine space.
func ringVectors(n, dim int) [][]float32 {
	vecs := make([][]float32, n)
	for i := range vecs {
		v := make([]float32, dim)
		angle := 2 * math.Pi * float64(i) / float64(n)
		v[0] = float32(math.Cos(angle))
		v[1] = float32(math.Sin(angle))
		vecs[i] = v
	}
	return vecs
}

func buildRing(t *testing.T, g *Graph, n, dim int) [][]float32 {
	t.Helper()
	vecs := ringVectors(n, dim)
	for i, v := range vecs {
		require.NoError(t, g.Insert(fmt.Sprintf("node-%d", i), v))
	}
	return vecs
}

func TestSearchValidation(t *testing.T) {
	g := New(seeded(7))
	require.NoError(t, g.Insert("a", []float32{1, 0}))

	t.Run("invalid k", func(t *testing.T) {
		_, err := g.Search([]float32{1, 0}, 0)
		require.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := g.Search(nil, 1)
		require.ErrorIs(t, err, ErrEmptyVector)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := g.Search([]float32{1, 0, 0}, 1)
		var mismatch *ErrDimensionMismatch
		require.ErrorAs(t, err, &mismatch)
	})
}

func TestSearchEmptyGraph(t *testing.T) {
	g := New(seeded(7))
	results, err := g.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, g.HistoryLen())
}

func TestSearchFindsExactMatch(t *testing.T) {
	// Small enough that insertion wires a complete graph, so every node is
	// one hop from any entry point and the ranking is exhaustive.
	g := New(seeded(7), func(o *Options) { o.MaxEdges = 32 })
	vecs := buildRing(t, g, 20, 8)

	for _, i := range []int{0, 7, 13, 19} {
		results, err := g.Search(vecs[i], 3)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, fmt.Sprintf("node-%d", i), results[0].ID)
		assert.InDelta(t, 1.0, float64(results[0].Similarity), 1e-5)
	}
}

func TestSearchRanking(t *testing.T) {
	g := New(seeded(7), func(o *Options) { o.MaxEdges = 32 })
	buildRing(t, g, 20, 8)

	results, err := g.Search(ringVectors(20, 8)[4], 10)
	require.NoError(t, err)
	require.Len(t, results, 10)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
}

func TestSearchTruncatesToK(t *testing.T) {
	g := New(seeded(7), func(o *Options) { o.MaxEdges = 32 })
	vecs := buildRing(t, g, 20, 8)

	results, err := g.Search(vecs[0], 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)

	results, err = g.Search(vecs[0], 100)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 20)
}

func TestSearchSideEffects(t *testing.T) {
	g := New(seeded(7), func(o *Options) { o.MaxEdges = 32 })
	vecs := buildRing(t, g, 20, 8)

	results, err := g.Search(vecs[3], 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, 1, g.HistoryLen())

	rec := g.history.snapshot()[0]
	assert.Equal(t, vecs[3], rec.query)
	assert.NotEmpty(t, rec.path)
	assert.Equal(t, float64(results[0].Similarity), rec.quality)
	require.Len(t, rec.results, len(results))
	for i, r := range results {
		assert.Equal(t, r.ID, rec.results[i])
	}

	// Every node on the path was visited once.
	for _, id := range rec.path {
		snap, ok := g.Get(id)
		require.True(t, ok)
		assert.GreaterOrEqual(t, snap.VisitCount, uint64(1))
	}
}

func TestSearchPathLength(t *testing.T) {
	g := New(seeded(7), func(o *Options) { o.MaxEdges = 32 })
	vecs := buildRing(t, g, 20, 8)

	results, err := g.Search(vecs[0], 20)
	require.NoError(t, err)

	rec := g.history.snapshot()[0]
	for _, r := range results {
		assert.Less(t, r.PathLength, len(rec.path))
	}
}

func TestSearchTagFilter(t *testing.T) {
	g := New(seeded(7), func(o *Options) { o.MaxEdges = 32 })
	vecs := ringVectors(10, 8)
	for i, v := range vecs {
		tag := "even"
		if i%2 == 1 {
			tag = "odd"
		}
		require.NoError(t, g.Insert(fmt.Sprintf("node-%d", i), v, tag, "all"))
	}

	results, err := g.Search(vecs[2], 10, "even")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		var i int
		_, err := fmt.Sscanf(r.ID, "node-%d", &i)
		require.NoError(t, err)
		assert.Zero(t, i%2)
	}

	// Multiple tags intersect.
	results, err = g.Search(vecs[2], 10, "even", "odd")
	require.NoError(t, err)
	assert.Empty(t, results)

	// An unknown tag matches nothing but still records the search.
	before := g.HistoryLen()
	results, err = g.Search(vecs[2], 10, "missing")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, before+1, g.HistoryLen())
}

func TestSearchExploration(t *testing.T) {
	// With full exploration the traversal still terminates and still ranks by
	// raw similarity.
	g := New(func(o *Options) {
		seed := int64(99)
		o.RandomSeed = &seed
		o.ExplorationRate = 1.0
		o.MaxEdges = 32
	})
	vecs := buildRing(t, g, 20, 8)

	results, err := g.Search(vecs[5], 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
}

func TestSearchModerateGraph(t *testing.T) {
	g := New(seeded(17))

	vec := func(i int) []float32 {
		v := make([]float32, 64)
		for j := range v {
			v[j] = float32((i*j)%100) / 100
		}
		return v
	}

	for i := 0; i < 50; i++ {
		require.NoError(t, g.Insert(fmt.Sprintf("node-%d", i), vec(i)))
	}
	require.Equal(t, 50, g.Len())

	results, err := g.Search(vec(25), 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 5)

	for _, r := range results {
		assert.Positive(t, r.Similarity)
	}
}

func TestSearchAfterRemove(t *testing.T) {
	g := New(seeded(7), func(o *Options) { o.MaxEdges = 32 })
	vecs := buildRing(t, g, 12, 8)

	require.True(t, g.Remove("node-5"))

	results, err := g.Search(vecs[5], 12)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NotEqual(t, "node-5", r.ID)
	}
}
