package stats

import (
	"math"
	"slices"
)

// Percentile returns the p-th quantile (0 <= p <= 1) of an already sorted
// slice, linearly interpolating between the two closest order statistics
// at position p*(n-1).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	h := p * float64(n-1)
	lo := math.Floor(h)
	hi := math.Ceil(h)
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}

// Percentiles sorts a copy of values and returns the quantile for each p.
func Percentiles(values []float64, ps ...float64) []float64 {
	temp := make([]float64, len(values))
	copy(temp, values)
	slices.Sort(temp)

	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = Percentile(temp, p)
	}
	return out
}

// CountDistinct returns the number of distinct values.
func CountDistinct(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
