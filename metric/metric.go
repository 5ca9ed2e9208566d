// Package metric provides pluggable distance metrics for the routing graph.
//
// A Metric converts a pair of embeddings into a raw distance and a raw distance
// into a bounded "higher is better" similarity score. Metrics are pure and
// stateless; implementations must be safe for concurrent use.
package metric

import (
	"errors"

	"github.com/hupe1980/routegraph/internal/math32"
)

// ErrVectorSizeMismatch is returned when two vectors of different lengths are compared.
var ErrVectorSizeMismatch = errors.New("vector sizes do not match")

// Metric computes raw distances between embeddings and maps distances to
// bounded similarity scores.
type Metric interface {
	// Distance returns the raw, metric-specific distance between a and b.
	// It must be total for any two equal-length vectors and return
	// ErrVectorSizeMismatch for mismatched lengths.
	Distance(a, b []float32) (float64, error)

	// Similarity maps a raw distance to a bounded score in (0, 1],
	// monotonically decreasing in the distance.
	Similarity(distance float64) float32

	// Name returns the unique name of the metric.
	Name() string
}

// ByName returns a built-in metric by its stable name.
//
// This is used by self-describing snapshot formats that store the metric name
// in their header.
func ByName(name string) (Metric, bool) {
	switch name {
	case "cosine":
		return Cosine{}, true
	case "squared-l2":
		return SquaredL2{}, true
	default:
		return nil, false
	}
}

// Cosine measures the cosine distance (1 - cosine similarity) between vectors.
//
// Zero vectors are treated as maximally distant from everything (distance 1),
// keeping the metric total.
type Cosine struct{}

// Distance returns the cosine distance between a and b.
func (Cosine) Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrVectorSizeMismatch
	}

	magA := math32.Magnitude(a)
	magB := math32.Magnitude(b)

	// Avoid division by zero
	if magA == 0 || magB == 0 {
		return 1, nil
	}

	cos := math32.Dot(a, b) / (magA * magB)

	return 1 - float64(cos), nil
}

// Similarity maps a cosine distance to (0, 1].
func (Cosine) Similarity(distance float64) float32 {
	return float32(1 / (1 + distance))
}

// Name returns the unique name of the metric ("cosine").
func (Cosine) Name() string { return "cosine" }

// SquaredL2 measures the squared Euclidean distance between vectors.
type SquaredL2 struct{}

// Distance returns the squared L2 distance between a and b.
func (SquaredL2) Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrVectorSizeMismatch
	}

	return float64(math32.SquaredL2(a, b)), nil
}

// Similarity maps a squared L2 distance to (0, 1].
func (SquaredL2) Similarity(distance float64) float32 {
	return float32(1 / (1 + distance))
}

// Name returns the unique name of the metric ("squared-l2").
func (SquaredL2) Name() string { return "squared-l2" }
