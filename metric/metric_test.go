package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineDistance(t *testing.T) {
	m := Cosine{}

	t.Run("identical vectors", func(t *testing.T) {
		d, err := m.Distance([]float32{1, 2, 3}, []float32{1, 2, 3})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, d, 1e-6)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		d, err := m.Distance([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, d, 1e-6)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		d, err := m.Distance([]float32{1, 0}, []float32{-1, 0})
		require.NoError(t, err)
		assert.InDelta(t, 2.0, d, 1e-6)
	})

	t.Run("zero vector is total", func(t *testing.T) {
		d, err := m.Distance([]float32{0, 0}, []float32{1, 1})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, d, 1e-6)
	})

	t.Run("size mismatch", func(t *testing.T) {
		_, err := m.Distance([]float32{1}, []float32{1, 2})
		assert.ErrorIs(t, err, ErrVectorSizeMismatch)
	})
}

func TestSquaredL2Distance(t *testing.T) {
	m := SquaredL2{}

	d, err := m.Distance([]float32{1, 2, 3}, []float32{4, 5, 6})
	require.NoError(t, err)
	assert.InDelta(t, 27.0, d, 1e-6)

	_, err = m.Distance([]float32{1}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrVectorSizeMismatch)
}

func TestSimilarityMonotonic(t *testing.T) {
	for _, m := range []Metric{Cosine{}, SquaredL2{}} {
		t.Run(m.Name(), func(t *testing.T) {
			prev := m.Similarity(0)
			assert.LessOrEqual(t, prev, float32(1.0))
			for _, d := range []float64{0.1, 0.5, 1, 2, 10, 1000} {
				s := m.Similarity(d)
				assert.Less(t, s, prev, "similarity must decrease with distance")
				assert.Greater(t, s, float32(0))
				prev = s
			}
		})
	}
}

func TestByName(t *testing.T) {
	m, ok := ByName("cosine")
	require.True(t, ok)
	assert.Equal(t, "cosine", m.Name())

	m, ok = ByName("squared-l2")
	require.True(t, ok)
	assert.Equal(t, "squared-l2", m.Name())

	_, ok = ByName("hamming")
	assert.False(t, ok)
}
