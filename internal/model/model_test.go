package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	bg = BetaGeoParams{R: 0.25, Alpha: 4, A: 0.8, B: 2.5}
	gg = GammaGammaParams{P: 6, Q: 4, V: 15}
)

func TestHyp2F1(t *testing.T) {
	// 2F1(1, 1; 2; z) = -ln(1-z)/z
	assert.InDelta(t, -math.Log(0.5)/0.5, hyp2f1(1, 1, 2, 0.5), 1e-12)
	// 2F1(1/2, 1; 3/2; z²) = atanh(z)/z
	assert.InDelta(t, math.Atanh(0.5)/0.5, hyp2f1(0.5, 1, 1.5, 0.25), 1e-12)
	assert.Equal(t, 1.0, hyp2f1(3, 4, 5, 0))
	// Terminating series: 2F1(-1, b; c; z) = 1 - b·z/c
	assert.InDelta(t, 1-2*0.3/4, hyp2f1(-1, 2, 4, 0.3), 1e-15)
}

func TestLogAddExp(t *testing.T) {
	assert.InDelta(t, math.Log(3), logAddExp(math.Log(1), math.Log(2)), 1e-12)
	assert.Equal(t, 5.0, logAddExp(math.Inf(-1), 5))
	assert.InDelta(t, 1000+math.Log(2), logAddExp(1000, 1000), 1e-9)
}

func TestBetaGeoLogLikelihood(t *testing.T) {
	tests := []struct {
		x, tx, T float64
		want     float64
	}{
		{2, 4, 10, -6.6473160759910765},
		{5, 9, 10, -11.967230730126925},
		{0, 0, 10, -0.31319074212384196},
	}
	for _, tt := range tests {
		got := betaGeoLogLikelihood(bg.R, bg.Alpha, bg.A, bg.B, tt.x, tt.tx, tt.T)
		assert.InDelta(t, tt.want, got, 1e-9, "x=%v tx=%v T=%v", tt.x, tt.tx, tt.T)
	}
}

func TestBetaGeo_Predict(t *testing.T) {
	horizon := 6 * Weekly.PerMonth()

	assert.InDelta(t, 1.68780, bg.Predict(horizon, 2, 4, 10), 1e-4)
	assert.InDelta(t, 5.67447, bg.Predict(horizon, 5, 9, 10), 1e-4)
	assert.InDelta(t, 0.89891, bg.Predict(12, 2, 4, 10), 1e-4)
	assert.InDelta(t, 3.09463, bg.Predict(12, 5, 9, 10), 1e-4)

	// No repeat purchases must not divide by zero.
	got := bg.Predict(horizon, 0, 0, 10)
	assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
	assert.InDelta(t, 0.37859, got, 1e-4)

	assert.Equal(t, 0.0, bg.Predict(0, 2, 4, 10))
}

func TestBetaGeo_PredictMonotone(t *testing.T) {
	prev := 0.0
	for i := 1; i <= 24; i++ {
		cur := bg.Predict(float64(i), 3, 6, 10)
		assert.Greater(t, cur, prev, "expected purchases must grow with the horizon")
		prev = cur
	}
}

func TestBetaGeo_PredictAll(t *testing.T) {
	got := bg.PredictAll(12, []float64{2, 5}, []float64{4, 9}, []float64{10, 10})
	require.Len(t, got, 2)
	assert.InDelta(t, 0.89891, got[0], 1e-4)
	assert.InDelta(t, 3.09463, got[1], 1e-4)
}

func TestBetaGeo_ProbabilityAlive(t *testing.T) {
	assert.Equal(t, 1.0, bg.ProbabilityAlive(0, 0, 10))
	assert.InDelta(t, 0.5539815334177388, bg.ProbabilityAlive(2, 4, 10), 1e-12)
	assert.InDelta(t, 0.8463009909547791, bg.ProbabilityAlive(5, 9, 10), 1e-12)

	// A customer who bought at the end of the period is more likely alive.
	assert.Greater(t, bg.ProbabilityAlive(2, 9.5, 10), bg.ProbabilityAlive(2, 1, 10))
}

func TestGammaGamma_LogLikelihood(t *testing.T) {
	assert.InDelta(t, -7.518165364306455, gammaGammaLogLikelihood(6, 4, 15, 2, 100), 1e-9)
	assert.InDelta(t, -5.141140167498008, gammaGammaLogLikelihood(6, 4, 15, 5, 50), 1e-9)
}

func TestGammaGamma_ConditionalExpectedAverageProfit(t *testing.T) {
	tests := []struct {
		x, m, want float64
	}{
		{2, 100, 86},
		{5, 50, 48.181818},
		{2, 75, 66},
		{5, 75, 70.909091},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, gg.ConditionalExpectedAverageProfit(tt.x, tt.m), 1e-5)
	}

	// More transactions pull the estimate towards the customer's own average.
	low := gg.ConditionalExpectedAverageProfit(1, 500)
	high := gg.ConditionalExpectedAverageProfit(50, 500)
	assert.Greater(t, high, low)
	assert.Less(t, high, 500.0)
}

func TestGammaGamma_RequiresFiniteMean(t *testing.T) {
	_, err := GammaGammaParams{P: 6, Q: 1, V: 15}.ExpectedAverageProfits([]float64{2}, []float64{10})
	assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
}

func TestCustomerLifetimeValue(t *testing.T) {
	freq := []float64{2, 5}
	rec := []float64{4, 9}
	T := []float64{10, 10}

	t.Run("Discounted", func(t *testing.T) {
		clv, err := CustomerLifetimeValue(bg, gg, freq, rec, T, []float64{100, 50}, 6, Weekly, 0.01)
		require.NoError(t, err)
		assert.InDelta(t, 140.596, clv[0], 1e-3)
		assert.InDelta(t, 264.957, clv[1], 1e-3)
	})

	t.Run("SameSpend", func(t *testing.T) {
		clv, err := CustomerLifetimeValue(bg, gg, freq, rec, T, []float64{75, 75}, 6, Weekly, 0.01)
		require.NoError(t, err)
		assert.InDelta(t, 107.899, clv[0], 1e-3)
		assert.InDelta(t, 389.94, clv[1], 1e-2)
		assert.Greater(t, clv[1], clv[0], "the regular buyer must be worth more")
	})

	t.Run("NoDiscount", func(t *testing.T) {
		monetary := []float64{100, 50}
		clv, err := CustomerLifetimeValue(bg, gg, freq, rec, T, monetary, 6, Weekly, 0)
		require.NoError(t, err)
		assert.InDelta(t, 145.151, clv[0], 1e-3)
		assert.InDelta(t, 273.406, clv[1], 1e-3)

		for i := range freq {
			want := bg.Predict(6*Weekly.PerMonth(), freq[i], rec[i], T[i]) *
				gg.ConditionalExpectedAverageProfit(freq[i], monetary[i])
			assert.InDelta(t, want, clv[i], 1e-9)
		}
	})

	t.Run("InvalidArguments", func(t *testing.T) {
		_, err := CustomerLifetimeValue(bg, gg, freq, rec, T, []float64{1, 1}, 0, Weekly, 0.01)
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = CustomerLifetimeValue(bg, gg, freq, rec, T, []float64{1, 1}, 6, Weekly, 1)
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = CustomerLifetimeValue(bg, gg, freq, rec, []float64{10}, []float64{1, 1}, 6, Weekly, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestPeriodUnit(t *testing.T) {
	tests := []struct {
		in       string
		want     PeriodUnit
		perMonth float64
	}{
		{"W", Weekly, 4.345},
		{"monthly", Monthly, 1},
		{"d", Daily, 30},
		{"H", Hourly, 720},
	}
	for _, tt := range tests {
		got, err := ParsePeriodUnit(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.perMonth, got.PerMonth())
	}

	_, err := ParsePeriodUnit("fortnight")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFitBetaGeo_InsufficientData(t *testing.T) {
	_, err := FitBetaGeo([]float64{2, 3}, []float64{4, 5}, []float64{10, 10}, FitOptions{MinCustomers: 10})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = FitBetaGeo(nil, nil, nil, FitOptions{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestFitBetaGeo_InvalidInput(t *testing.T) {
	_, err := FitBetaGeo([]float64{2}, []float64{12}, []float64{10}, FitOptions{})
	assert.ErrorIs(t, err, ErrInvalidInput, "recency beyond T must be rejected")

	_, err = FitBetaGeo([]float64{2}, []float64{4}, []float64{10}, FitOptions{Penalizer: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFitBetaGeo_IterationLimit(t *testing.T) {
	freq := []float64{2, 5, 3, 8, 1, 4, 6, 2, 3, 7}
	rec := []float64{4, 9, 5, 9.5, 1, 6, 8, 3, 7, 9}
	T := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}

	_, err := FitBetaGeo(freq, rec, T, FitOptions{MaxIterations: 1})
	assert.ErrorIs(t, err, ErrNotConverged)
}

func TestFitGammaGamma_InvalidInput(t *testing.T) {
	_, err := FitGammaGamma([]float64{2, 0}, []float64{10, 10}, FitOptions{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = FitGammaGamma([]float64{2}, []float64{10}, FitOptions{MinCustomers: 5})
	assert.ErrorIs(t, err, ErrInsufficientData)
}
