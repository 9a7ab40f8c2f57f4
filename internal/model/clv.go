package model

import (
	"fmt"
	"math"
	"strings"
)

// PeriodUnit is the time unit the BG/NBD model was fitted in.
type PeriodUnit int

const (
	Weekly PeriodUnit = iota
	Monthly
	Daily
	Hourly
)

// PerMonth returns how many units make up one month.
func (u PeriodUnit) PerMonth() float64 {
	switch u {
	case Monthly:
		return 1
	case Daily:
		return 30
	case Hourly:
		return 30 * 24
	default:
		return 4.345
	}
}

func (u PeriodUnit) String() string {
	switch u {
	case Monthly:
		return "M"
	case Daily:
		return "D"
	case Hourly:
		return "H"
	default:
		return "W"
	}
}

// ParsePeriodUnit accepts W, M, D or H and their long names.
func ParsePeriodUnit(s string) (PeriodUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "week", "weekly":
		return Weekly, nil
	case "m", "month", "monthly":
		return Monthly, nil
	case "d", "day", "daily":
		return Daily, nil
	case "h", "hour", "hourly":
		return Hourly, nil
	}
	return Weekly, fmt.Errorf("%w: unknown period unit %q", ErrInvalidInput, s)
}

// CustomerLifetimeValue returns the discounted value of each customer's
// expected purchases over the next horizon months. For month i the expected
// transactions Predict(i·f) - Predict((i-1)·f), with f units per month, are
// priced at the Gamma-Gamma expected spend and discounted by (1+rate)^i.
//
// The BG/NBD parameters and the recency and T columns must share unit.
func CustomerLifetimeValue(bg BetaGeoParams, gg GammaGammaParams, frequency, recency, T, monetary []float64,
	horizon int, unit PeriodUnit, discountRate float64) ([]float64, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: CLTV horizon must be positive, got %d", ErrInvalidInput, horizon)
	}
	if discountRate < 0 || discountRate >= 1 || math.IsNaN(discountRate) {
		return nil, fmt.Errorf("%w: discount rate must lie in [0, 1), got %v", ErrInvalidInput, discountRate)
	}
	if err := bg.Validate(); err != nil {
		return nil, err
	}
	if err := checkHistories("CLTV", frequency, recency, T); err != nil {
		return nil, err
	}

	values, err := gg.ExpectedAverageProfits(frequency, monetary)
	if err != nil {
		return nil, err
	}

	f := unit.PerMonth()
	clv := make([]float64, len(frequency))
	for j := range frequency {
		prev := 0.0
		var total float64
		for i := 1; i <= horizon; i++ {
			cur := bg.Predict(float64(i)*f, frequency[j], recency[j], T[j])
			total += (cur - prev) * values[j] / math.Pow(1+discountRate, float64(i))
			prev = cur
		}
		clv[j] = total
	}
	return clv, nil
}
