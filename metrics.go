package routegraph

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/routegraph/graph"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordSearch is called after each search operation.
	// k is the number of neighbors requested, duration is the time taken,
	// err is nil if successful.
	RecordSearch(k int, duration time.Duration, err error)

	// RecordLearn is called after each adaptation pass.
	RecordLearn(report graph.LearnReport, duration time.Duration)

	// RecordRemove is called after each remove operation.
	// removed reports whether the item existed.
	RecordRemove(duration time.Duration, removed bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)              {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordLearn(graph.LearnReport, time.Duration)   {}
func (NoopMetricsCollector) RecordRemove(time.Duration, bool)               {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	LearnCount       atomic.Int64
	LearnReinforced  atomic.Int64
	LearnWeakened    atomic.Int64
	LearnPruned      atomic.Int64
	LearnShortcuts   atomic.Int64
	RemoveCount      atomic.Int64
	RemoveMisses     atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(k int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordLearn implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLearn(report graph.LearnReport, duration time.Duration) {
	b.LearnCount.Add(1)
	b.LearnReinforced.Add(int64(report.Reinforced))
	b.LearnWeakened.Add(int64(report.Weakened))
	b.LearnPruned.Add(int64(report.Pruned))
	b.LearnShortcuts.Add(int64(report.Shortcuts))
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(duration time.Duration, removed bool) {
	b.RemoveCount.Add(1)
	if !removed {
		b.RemoveMisses.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:     b.InsertCount.Load(),
		InsertErrors:    b.InsertErrors.Load(),
		InsertAvgNanos:  b.getAvgInsertNanos(),
		SearchCount:     b.SearchCount.Load(),
		SearchErrors:    b.SearchErrors.Load(),
		SearchAvgNanos:  b.getAvgSearchNanos(),
		LearnCount:      b.LearnCount.Load(),
		LearnReinforced: b.LearnReinforced.Load(),
		LearnWeakened:   b.LearnWeakened.Load(),
		LearnPruned:     b.LearnPruned.Load(),
		LearnShortcuts:  b.LearnShortcuts.Load(),
		RemoveCount:     b.RemoveCount.Load(),
		RemoveMisses:    b.RemoveMisses.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgInsertNanos() int64 {
	count := b.InsertCount.Load()
	if count == 0 {
		return 0
	}
	return b.InsertTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount     int64
	InsertErrors    int64
	InsertAvgNanos  int64
	SearchCount     int64
	SearchErrors    int64
	SearchAvgNanos  int64
	LearnCount      int64
	LearnReinforced int64
	LearnWeakened   int64
	LearnPruned     int64
	LearnShortcuts  int64
	RemoveCount     int64
	RemoveMisses    int64
}
