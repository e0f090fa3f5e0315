// Package vectormath provides pure functions over fixed-length real vectors:
// cosine similarity, L2 distance, normalization, and dot product. All
// computation happens in float64 regardless of the caller's input precision,
// and results are deterministic given identical inputs — no parallel
// reduction reordering within a single call.
package vectormath

import (
	"math"

	"github.com/corvusdb/corvus/internal/corverr"
)

// Validate checks that a vector has no NaN/Inf components. Dimension
// agreement between two vectors is checked by the individual operations
// below, which return corverr.DimensionMismatch on mismatch.
func Validate(v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return corverr.Newf(corverr.Internal, "vector component %d is NaN or Inf", i)
		}
	}
	return nil
}

func sameLength(a, b []float64) error {
	if len(a) != len(b) {
		return corverr.Newf(corverr.DimensionMismatch, "vector length mismatch: %d != %d", len(a), len(b))
	}
	return nil
}

// Dot returns the dot product of a and b.
func Dot(a, b []float64) (float64, error) {
	if err := sameLength(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum, nil
}

// Norm returns the Euclidean (L2) norm of a.
func Norm(a []float64) float64 {
	var sum float64
	for _, x := range a {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity between a and b. If either vector has
// zero norm, the similarity is defined as 0 rather than dividing by zero.
func Cosine(a, b []float64) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (na * nb), nil
}

// L2 returns the Euclidean distance between a and b.
func L2(a, b []float64) (float64, error) {
	if err := sameLength(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Normalize returns a unit vector in the direction of a. The zero vector maps
// to itself.
func Normalize(a []float64) []float64 {
	n := Norm(a)
	out := make([]float64, len(a))
	if n == 0 {
		copy(out, a)
		return out
	}
	for i, x := range a {
		out[i] = x / n
	}
	return out
}

// Sum returns the element-wise sum of vs, used for centroid maintenance. All
// vectors must share the same dimension; Sum panics-free returns an error
// instead on mismatch.
func Sum(vs ...[]float64) ([]float64, error) {
	if len(vs) == 0 {
		return nil, nil
	}
	d := len(vs[0])
	out := make([]float64, d)
	for _, v := range vs {
		if len(v) != d {
			return nil, corverr.Newf(corverr.DimensionMismatch, "vector length mismatch: %d != %d", len(v), d)
		}
		for i, x := range v {
			out[i] += x
		}
	}
	return out, nil
}

// Centroid returns the element-wise mean of vs.
func Centroid(vs ...[]float64) ([]float64, error) {
	sum, err := Sum(vs...)
	if err != nil || sum == nil {
		return sum, err
	}
	n := float64(len(vs))
	for i := range sum {
		sum[i] /= n
	}
	return sum, nil
}

// ToFloat64 widens a float32 vector to float64 for internal computation.
func ToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
