// Package math32 provides float32 vector kernels used by the metric package.
// This is an internal package - external users should use the metric package.
package math32

import "math"

// Dot calculates the dot product of two vectors.
func Dot(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}

	return ret
}

// SquaredL2 calculates the squared L2 distance between two vectors.
func SquaredL2(a, b []float32) float32 {
	var distance float32
	for i := range a {
		distance += (a[i] - b[i]) * (a[i] - b[i])
	}

	return distance
}

// Magnitude calculates the magnitude (length) of a vector.
func Magnitude(a []float32) float32 {
	return float32(math.Sqrt(float64(Dot(a, a))))
}
