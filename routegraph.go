// Package routegraph provides an embedded, self-organizing vector index for Go.
//
// Unlike a static ANN index, a route graph adapts its topology to the query
// workload: every search is recorded, and a learning pass reinforces edges
// along successful search paths, weakens edges along poor ones, prunes edges
// that stay weak, and synthesizes shortcut edges between items that keep
// appearing in the same high-quality result sets.
//
// # Quick Start
//
//	ctx := context.Background()
//	idx := routegraph.New[string]()
//
//	_ = idx.Insert(ctx, routegraph.Item[string]{
//	    ID:     "doc-1",
//	    Vector: []float32{0.1, 0.9, ...},
//	    Data:   "my document",
//	    Tags:   []string{"tech"},
//	})
//
//	results, _ := idx.Search(ctx, query, 10)
//	report := idx.Learn(ctx)
//
// Searches can be restricted to tagged items:
//
//	results, _ := idx.Search(ctx, query, 10, func(o *routegraph.SearchOptions) {
//	    o.Tags = []string{"tech"}
//	})
//
// # Background Adaptation
//
// Instead of calling Learn manually, a paced background loop can be attached:
//
//	stop := idx.StartAutoLearn(ctx)
//	defer stop()
//
// # Persistence
//
// The full index state, including learned weights and the query history, can
// be written to a compressed snapshot and restored later:
//
//	_ = idx.SaveToFile(ctx, "index.rgs")
//	idx, _ = routegraph.NewFromFile[string]("index.rgs")
package routegraph

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/routegraph/codec"
	"github.com/hupe1980/routegraph/graph"
)

// Item is a vector with its identifier, associated data and optional tags.
type Item[T any] struct {
	// ID is the unique identifier of the item. Re-inserting an existing ID
	// replaces the item.
	ID string

	// Vector is the embedding. All items in one index must share a dimension.
	Vector []float32

	// Data is the payload returned by Get and attached to search results.
	Data T

	// Tags are optional labels used for search filtering.
	Tags []string
}

// SearchResult is a search hit enriched with the item's payload.
type SearchResult[T any] struct {
	graph.SearchResult

	// Data is the payload of the matched item.
	Data T
}

// SearchOptions contains options for a single search.
type SearchOptions struct {
	// Tags restricts results to items carrying every listed tag.
	Tags []string
}

// Index is a thread-safe adaptive vector index with an attached payload store.
//
// A single mutex guards the whole index. Search is a write operation here
// (it updates visit counters and the query history), so reader/writer
// separation would buy nothing.
type Index[T any] struct {
	mu      sync.Mutex
	graph   *graph.Graph
	data    map[string]T
	codec   codec.Codec
	metrics MetricsCollector
	logger  *Logger

	// learnGate keeps background adaptation passes single-flight.
	learnGate *semaphore.Weighted

	// learnedAt tracks how many searches the last learning pass had seen,
	// so the auto-learn loop can skip passes with nothing new to consume.
	searches  uint64
	learnedAt uint64
}

// New creates a new adaptive vector index.
//
// Graph behavior (edge caps, learning rate, metric) is configured through
// WithGraphOptions; the remaining options wire logging, metrics and the
// snapshot codec.
func New[T any](optFns ...Option) *Index[T] {
	opts := applyOptions(optFns)

	return &Index[T]{
		graph:     graph.New(opts.graphOptions...),
		data:      make(map[string]T),
		codec:     opts.codec,
		metrics:   opts.metricsCollector,
		logger:    opts.logger,
		learnGate: newLearnGate(),
	}
}

// Insert adds or replaces an item.
func (idx *Index[T]) Insert(ctx context.Context, item Item[T]) error {
	start := time.Now()

	idx.mu.Lock()
	err := translateError(idx.graph.Insert(item.ID, item.Vector, item.Tags...))
	if err == nil {
		idx.data[item.ID] = item.Data
	}
	idx.mu.Unlock()

	idx.metrics.RecordInsert(time.Since(start), err)
	idx.logger.LogInsert(ctx, item.ID, len(item.Vector), err)

	return err
}

// Search returns up to k items ordered by descending similarity to the query.
//
// Search feeds the adaptation machinery as a side effect: the traversal path
// and result quality are recorded for the next learning pass.
func (idx *Index[T]) Search(ctx context.Context, query []float32, k int, optFns ...func(o *SearchOptions)) ([]SearchResult[T], error) {
	start := time.Now()

	var opts SearchOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	idx.mu.Lock()
	hits, err := idx.graph.Search(query, k, opts.Tags...)
	if err == nil {
		idx.searches++
	}

	results := make([]SearchResult[T], 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult[T]{
			SearchResult: hit,
			Data:         idx.data[hit.ID],
		})
	}
	idx.mu.Unlock()

	err = translateError(err)
	idx.metrics.RecordSearch(k, time.Since(start), err)
	idx.logger.LogSearch(ctx, k, len(results), err)

	if err != nil {
		return nil, err
	}

	return results, nil
}

// Learn runs one adaptation pass over the recorded query history.
func (idx *Index[T]) Learn(ctx context.Context) graph.LearnReport {
	start := time.Now()

	idx.mu.Lock()
	report := idx.graph.Learn()
	idx.learnedAt = idx.searches
	idx.mu.Unlock()

	idx.metrics.RecordLearn(report, time.Since(start))
	idx.logger.LogLearn(ctx, report)

	return report
}

// Remove deletes an item and reports whether it was present.
func (idx *Index[T]) Remove(ctx context.Context, id string) bool {
	start := time.Now()

	idx.mu.Lock()
	removed := idx.graph.Remove(id)
	delete(idx.data, id)
	idx.mu.Unlock()

	idx.metrics.RecordRemove(time.Since(start), removed)
	idx.logger.LogRemove(ctx, id, removed)

	return removed
}

// Get retrieves an item's payload by ID.
func (idx *Index[T]) Get(id string) (T, error) {
	idx.mu.Lock()
	data, ok := idx.data[id]
	idx.mu.Unlock()

	if !ok {
		var zero T
		return zero, ErrNotFound
	}

	return data, nil
}

// GetNode returns the graph view of an item: its vector, learned edges, visit
// count and quality average.
func (idx *Index[T]) GetNode(id string) (graph.NodeSnapshot, error) {
	idx.mu.Lock()
	snap, ok := idx.graph.Get(id)
	idx.mu.Unlock()

	if !ok {
		return graph.NodeSnapshot{}, ErrNotFound
	}

	return snap, nil
}

// Len returns the number of indexed items.
func (idx *Index[T]) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.graph.Len()
}

// IsEmpty reports whether the index holds no items.
func (idx *Index[T]) IsEmpty() bool {
	return idx.Len() == 0
}

// Dimension returns the embedding dimension, or 0 before the first insert.
func (idx *Index[T]) Dimension() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.graph.Dimension()
}

// Clear removes all items, the query history and the dimension lock.
func (idx *Index[T]) Clear() {
	idx.mu.Lock()
	idx.graph.Clear()
	idx.data = make(map[string]T)
	idx.searches = 0
	idx.learnedAt = 0
	idx.mu.Unlock()
}

// Stats returns statistics about the underlying graph.
func (idx *Index[T]) Stats() graph.Stats {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.graph.Stats()
}

// pendingSearches returns the number of searches recorded since the last
// learning pass.
func (idx *Index[T]) pendingSearches() uint64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.searches - idx.learnedAt
}
