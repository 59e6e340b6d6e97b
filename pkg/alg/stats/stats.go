// Package stats holds the small descriptive statistics used to summarize
// per-commit magnitudes. Spreads are population standard deviations (÷n).
package stats

import (
	"cmp"
	"math"
	"slices"
)

// Number is any integer or floating-point type.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Quantiles reported in summaries.
const (
	QuantileMedian = 0.5
	QuantileP95    = 0.95
)

// Sum adds up values.
func Sum[T Number](values []T) T {
	var total T

	for _, v := range values {
		total += v
	}

	return total
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return Sum(values) / float64(len(values))
}

// MeanStdDev returns the mean and the population standard deviation.
func MeanStdDev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	mean = Mean(values)

	var sq float64

	for _, v := range values {
		d := v - mean
		sq += d * d
	}

	return mean, math.Sqrt(sq / float64(len(values)))
}

// Quantile returns the q-th quantile of values, q in [0, 1], interpolating
// linearly between the closest ranks. values is not modified.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return SortedQuantile(sorted, q)
}

// SortedQuantile is Quantile for input already sorted ascending.
func SortedQuantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	pos := Clamp(q, 0, 1) * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))

	if lo == hi {
		return sorted[lo]
	}

	frac := pos - float64(lo)

	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median returns the 0.5 quantile.
func Median(values []float64) float64 {
	return Quantile(values, QuantileMedian)
}

// Clamp restricts v to [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

// Max returns the largest value, or the zero value for no values.
func Max[T cmp.Ordered](values []T) T {
	if len(values) == 0 {
		var zero T

		return zero
	}

	return slices.Max(values)
}
