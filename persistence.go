package routegraph

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/routegraph/codec"
	"github.com/hupe1980/routegraph/graph"
)

// snapshotMagic identifies a routegraph snapshot. The trailing digit is the
// container version.
var snapshotMagic = [8]byte{'R', 'G', 'S', 'N', 'A', 'P', '0', '1'}

// ErrInvalidSnapshot is returned when a snapshot header cannot be parsed.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// envelope is the serialized form of an index: the graph state plus the
// payload store.
type envelope[T any] struct {
	State graph.State  `json:"state"`
	Data  map[string]T `json:"data"`
}

// SaveToWriter writes a snapshot of the index to w.
//
// The container is self-describing: a fixed magic, the codec name, then a
// zstd-compressed, codec-encoded envelope holding the graph state (including
// learned weights and the query history) and the payload store.
func (idx *Index[T]) SaveToWriter(ctx context.Context, w io.Writer) error {
	// Encoding happens under the lock: the state references live vectors and
	// the payload map, so a concurrent insert must not race the marshal.
	idx.mu.Lock()
	payload, err := idx.codec.Marshal(envelope[T]{
		State: idx.graph.State(),
		Data:  idx.data,
	})
	idx.mu.Unlock()

	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	bw := bufio.NewWriter(w)

	if _, err := bw.Write(snapshotMagic[:]); err != nil {
		return err
	}

	name := idx.codec.Name()
	if len(name) > 255 {
		return fmt.Errorf("%w: codec name too long", ErrInvalidSnapshot)
	}
	if err := bw.WriteByte(byte(len(name))); err != nil {
		return err
	}
	if _, err := bw.WriteString(name); err != nil {
		return err
	}

	zw, err := zstd.NewWriter(bw)
	if err != nil {
		return fmt.Errorf("create compressor: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		_ = zw.Close()
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush compressor: %w", err)
	}

	return bw.Flush()
}

// SaveToFile writes a snapshot of the index to a file.
//
// The snapshot is written to a temporary sibling first and renamed into place,
// so a crash mid-write never clobbers an existing snapshot.
func (idx *Index[T]) SaveToFile(ctx context.Context, filename string) error {
	tmp := filename + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		idx.logger.LogSnapshot(ctx, filename, err)
		return err
	}

	if err := idx.SaveToWriter(ctx, f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		idx.logger.LogSnapshot(ctx, filename, err)
		return err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		idx.logger.LogSnapshot(ctx, filename, err)
		return err
	}

	if err := os.Rename(tmp, filename); err != nil {
		_ = os.Remove(tmp)
		idx.logger.LogSnapshot(ctx, filename, err)
		return err
	}

	idx.logger.LogSnapshot(ctx, filename, nil)

	return nil
}

// NewFromReader restores an index from a snapshot stream.
//
// The codec is selected from the snapshot header; WithCodec is only consulted
// for future saves. Graph options stored in the snapshot are applied before
// any WithGraphOptions overrides.
func NewFromReader[T any](r io.Reader, optFns ...Option) (*Index[T], error) {
	opts := applyOptions(optFns)

	br := bufio.NewReader(r)

	var magic [8]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: short header: %w", ErrInvalidSnapshot, err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidSnapshot)
	}

	nameLen, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: short header: %w", ErrInvalidSnapshot, err)
	}
	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(br, nameBuf); err != nil {
		return nil, fmt.Errorf("%w: short header: %w", ErrInvalidSnapshot, err)
	}

	c, ok := codec.ByName(string(nameBuf))
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrInvalidSnapshot, string(nameBuf))
	}

	zr, err := zstd.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("open decompressor: %w", err)
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	var env envelope[T]
	if err := c.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	g, err := graph.FromState(env.State, opts.graphOptions...)
	if err != nil {
		return nil, fmt.Errorf("restore graph: %w", err)
	}

	data := env.Data
	if data == nil {
		data = make(map[string]T)
	}

	return &Index[T]{
		graph:     g,
		data:      data,
		codec:     opts.codec,
		metrics:   opts.metricsCollector,
		logger:    opts.logger,
		learnGate: newLearnGate(),
	}, nil
}

// NewFromFile restores an index from a snapshot file.
func NewFromFile[T any](filename string, optFns ...Option) (*Index[T], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewFromReader[T](f, optFns...)
}
