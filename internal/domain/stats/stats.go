// Package stats holds the small numeric helpers shared by the engine.
// Empty or degenerate input yields zero instead of gonum's NaN.
package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean of values; zero when empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// SampleStdDev is the n-1 standard deviation; zero for fewer than two values.
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Sorted returns an ascending copy of values.
func Sorted(values []float64) []float64 {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}

// Percentile interpolates linearly between the closest ranks of an ascending
// slice, so the median of 1..5 is 3. p is in [0,100]; an empty slice yields
// zero. stat.Quantile's LinearInterp places ranks at p*n and would give 2.5.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n == 1 || p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[n-1]
	}
	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Slope is the least-squares slope of ys over xs; zero when fewer than two
// points or when every x is equal.
func Slope(xs, ys []float64) float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0
	}
	if stat.Variance(xs, nil) == 0 {
		return 0
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}

// WeightedMean is sum(v*w)/sum(w) over the pairs both slices cover; ok is
// false when those weights sum to zero.
func WeightedMean(values, weights []float64) (mean float64, ok bool) {
	n := min(len(values), len(weights))
	if n == 0 || floats.Sum(weights[:n]) == 0 {
		return 0, false
	}
	return stat.Mean(values[:n], weights[:n]), true
}

// Sign is -1, 0 or +1. Magnitudes within eps of zero are zero.
func Sign(v, eps float64) int {
	switch {
	case v > eps:
		return 1
	case v < -eps:
		return -1
	default:
		return 0
	}
}
