package stats

import "math"

// Outlier fences are derived from the 1st and 99th percentiles rather than the
// quartiles, so only the extreme tail of purchase/spend columns is touched.
const (
	lowerFenceQuantile = 0.01
	upperFenceQuantile = 0.99
	fenceMultiplier    = 1.5
)

// CapResult reports the fences used for one column and how many values were clamped.
type CapResult struct {
	Column string  `json:"column"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Capped int     `json:"capped"`
}

// OutlierThresholds returns the lower and upper fences for a column:
// P1 - 1.5*(P99-P1) and P99 + 1.5*(P99-P1).
func OutlierThresholds(values []float64) (low, up float64) {
	if len(values) == 0 {
		return 0, 0
	}
	q := Percentiles(values, lowerFenceQuantile, upperFenceQuantile)
	iqr := q[1] - q[0]
	return q[0] - fenceMultiplier*iqr, q[1] + fenceMultiplier*iqr
}

// CapOutliers clamps, in place, every value outside the fences to the rounded
// fence. Rounding is half-to-even so counts stay integral.
func CapOutliers(column string, values []float64) CapResult {
	low, up := OutlierThresholds(values)
	res := CapResult{Column: column, Lower: low, Upper: up}
	if len(values) == 0 {
		return res
	}

	roundedLow := math.RoundToEven(low)
	roundedUp := math.RoundToEven(up)
	for i, v := range values {
		switch {
		case v < low:
			values[i] = roundedLow
			res.Capped++
		case v > up:
			values[i] = roundedUp
			res.Capped++
		}
	}
	return res
}
