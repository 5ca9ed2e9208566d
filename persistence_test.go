package routegraph

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/routegraph/codec"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	idx := New[string](deterministic(21))

	items := circleItems(12, 8)
	for _, item := range items {
		require.NoError(t, idx.Insert(ctx, item))
	}
	for i := 0; i < 5; i++ {
		_, err := idx.Search(ctx, items[i].Vector, 3)
		require.NoError(t, err)
	}
	idx.Learn(ctx)

	var buf bytes.Buffer
	require.NoError(t, idx.SaveToWriter(ctx, &buf))

	restored, err := NewFromReader[string](&buf, deterministic(21))
	require.NoError(t, err)

	assert.Equal(t, idx.Len(), restored.Len())
	assert.Equal(t, idx.Dimension(), restored.Dimension())
	assert.Equal(t, idx.Stats(), restored.Stats())

	data, err := restored.Get("item-3")
	require.NoError(t, err)
	assert.Equal(t, "payload-3", data)

	// Learned graph state survives: node views match exactly.
	for _, item := range items {
		orig, err := idx.GetNode(item.ID)
		require.NoError(t, err)
		copied, err := restored.GetNode(item.ID)
		require.NoError(t, err)
		assert.Equal(t, orig, copied)
	}

	results, err := restored.Search(ctx, items[2].Vector, 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "item-2", results[0].ID)
	assert.Equal(t, "payload-2", results[0].Data)
}

func TestSnapshotFile(t *testing.T) {
	ctx := context.Background()
	idx := New[int](deterministic(22))

	require.NoError(t, idx.Insert(ctx, Item[int]{ID: "a", Vector: []float32{1, 0}, Data: 42}))
	require.NoError(t, idx.Insert(ctx, Item[int]{ID: "b", Vector: []float32{0, 1}, Data: 7}))

	filename := filepath.Join(t.TempDir(), "index.rgs")
	require.NoError(t, idx.SaveToFile(ctx, filename))

	// No temp file is left behind.
	assert.NoFileExists(t, filename+".tmp")

	restored, err := NewFromFile[int](filename)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Len())

	data, err := restored.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 42, data)
}

func TestSnapshotCodecSelection(t *testing.T) {
	ctx := context.Background()
	idx := New[string](deterministic(23), WithCodec(codec.JSON{}))

	require.NoError(t, idx.Insert(ctx, Item[string]{ID: "a", Vector: []float32{1, 0}, Data: "x"}))

	var buf bytes.Buffer
	require.NoError(t, idx.SaveToWriter(ctx, &buf))

	// The header names the codec; the reader picks it up without options.
	restored, err := NewFromReader[string](&buf)
	require.NoError(t, err)

	data, err := restored.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "x", data)
}

func TestSnapshotInvalid(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		_, err := NewFromReader[string](bytes.NewReader([]byte("not a snapshot at all")))
		require.ErrorIs(t, err, ErrInvalidSnapshot)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := NewFromReader[string](bytes.NewReader(snapshotMagic[:4]))
		require.ErrorIs(t, err, ErrInvalidSnapshot)
	})

	t.Run("unknown codec", func(t *testing.T) {
		var buf bytes.Buffer
		buf.Write(snapshotMagic[:])
		buf.WriteByte(3)
		buf.WriteString("xml")
		_, err := NewFromReader[string](&buf)
		require.ErrorIs(t, err, ErrInvalidSnapshot)
	})
}
