package stats

import (
	"fmt"
	"slices"
	"sort"
)

// Direction decides which end of the raw scale receives the top score.
type Direction int

const (
	// Ascending gives the top score to the highest raw values (frequency, monetary, CLTV).
	Ascending Direction = iota
	// Descending gives the top score to the lowest raw values (recency in days).
	Descending
)

// QuantileDegeneracyError is returned when a column cannot be cut into the
// requested number of non-empty quantile bins.
type QuantileDegeneracyError struct {
	Column   string
	Bins     int
	Distinct int
	Rows     int
}

func (e *QuantileDegeneracyError) Error() string {
	return fmt.Sprintf("cannot cut column %q into %d quantile bins: %d distinct values across %d rows",
		e.Column, e.Bins, e.Distinct, e.Rows)
}

// RankFirst returns 1-based ordinal ranks where ties are broken by row order,
// so equal values seen earlier receive the lower rank.
func RankFirst(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	ranks := make([]float64, len(values))
	for rank, i := range idx {
		ranks[i] = float64(rank + 1)
	}
	return ranks
}

// QuantileEdges returns the bins+1 cut points at the k/bins quantiles.
// The edges must be strictly increasing, otherwise the column is degenerate.
func QuantileEdges(column string, values []float64, bins int) ([]float64, error) {
	if bins < 1 {
		return nil, fmt.Errorf("bins must be positive, got %d", bins)
	}
	if len(values) == 0 {
		return nil, &QuantileDegeneracyError{Column: column, Bins: bins}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	edges := make([]float64, bins+1)
	for k := 0; k <= bins; k++ {
		edges[k] = Percentile(sorted, float64(k)/float64(bins))
	}
	for k := 1; k < len(edges); k++ {
		if edges[k] <= edges[k-1] {
			return nil, &QuantileDegeneracyError{
				Column:   column,
				Bins:     bins,
				Distinct: CountDistinct(values),
				Rows:     len(values),
			}
		}
	}
	return edges, nil
}

// QuantileCut assigns each value a 0-based bin over right-closed intervals
// (e[k], e[k+1]], the first interval also including its lower edge.
// Every bin must receive at least one value.
func QuantileCut(column string, values []float64, bins int) ([]int, error) {
	edges, err := QuantileEdges(column, values, bins)
	if err != nil {
		return nil, err
	}

	inner := edges[1:bins]
	out := make([]int, len(values))
	counts := make([]int, bins)
	for i, v := range values {
		b := sort.SearchFloat64s(inner, v)
		out[i] = b
		counts[b]++
	}

	if slices.Contains(counts, 0) {
		return nil, &QuantileDegeneracyError{
			Column:   column,
			Bins:     bins,
			Distinct: CountDistinct(values),
			Rows:     len(values),
		}
	}
	return out, nil
}

// QuantileScore converts a column into ordinal scores 1..bins.
func QuantileScore(column string, values []float64, bins int, dir Direction) ([]int, error) {
	cut, err := QuantileCut(column, values, bins)
	if err != nil {
		return nil, err
	}

	scores := make([]int, len(cut))
	for i, b := range cut {
		if dir == Descending {
			scores[i] = bins - b
		} else {
			scores[i] = b + 1
		}
	}
	return scores, nil
}
