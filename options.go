package routegraph

import (
	"log/slog"

	"github.com/hupe1980/routegraph/codec"
	"github.com/hupe1980/routegraph/graph"
	"github.com/hupe1980/routegraph/metric"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	graphOptions     []func(o *graph.Options)
}

// Option configures Index constructor/load behavior.
type Option func(*options)

// WithCodec configures the codec used for encoding and decoding snapshots.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
//
// Example with BasicMetricsCollector:
//
//	metrics := &routegraph.BasicMetricsCollector{}
//	idx := routegraph.New[string](routegraph.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// Example with JSON logging:
//
//	logger := routegraph.NewJSONLogger(slog.LevelInfo)
//	idx := routegraph.New[string](routegraph.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithGraphOptions forwards options to the underlying routing graph.
//
// Example:
//
//	idx := routegraph.New[string](routegraph.WithGraphOptions(func(o *graph.Options) {
//	    o.MaxEdges = 32
//	    o.ExplorationRate = 0.05
//	}))
func WithGraphOptions(optFns ...func(o *graph.Options)) Option {
	return func(o *options) {
		o.graphOptions = append(o.graphOptions, optFns...)
	}
}

// WithMetric configures the distance metric of the underlying graph.
// Convenience wrapper for the common case.
func WithMetric(m metric.Metric) Option {
	return WithGraphOptions(func(o *graph.Options) {
		o.Metric = m
	})
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
