package model_test

import (
	"testing"

	"cltv-rfm/internal/model"
	"cltv-rfm/internal/simulation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulatedBase(t *testing.T, n int) []simulation.History {
	t.Helper()
	truth := model.BetaGeoParams{R: 0.25, Alpha: 4, A: 0.8, B: 2.5}
	spend := model.GammaGammaParams{P: 6, Q: 4, V: 15}

	tenures := make([]float64, n)
	for i := range tenures {
		tenures[i] = 20 + float64(i%33)
	}
	return simulation.NewEngine(truth, spend, 11).SimulateMany(tenures)
}

func TestFitBetaGeo_SimulatedBase(t *testing.T) {
	truth := model.BetaGeoParams{R: 0.25, Alpha: 4, A: 0.8, B: 2.5}
	freq, rec, T, _ := simulation.Columns(simulatedBase(t, 1000))

	fitted, err := model.FitBetaGeo(freq, rec, T, model.FitOptions{MaxIterations: 20000})
	require.NoError(t, err)
	require.NoError(t, fitted.Validate())

	// The maximum-likelihood estimate explains the sample at least as well as
	// the parameters that generated it.
	assert.GreaterOrEqual(t, fitted.LogLikelihood(freq, rec, T), truth.LogLikelihood(freq, rec, T)-1e-4)

	// Predicted and simulated purchase counts agree in aggregate.
	var observed, expected float64
	for i := range freq {
		observed += freq[i]
		expected += fitted.Predict(T[i], 0, 0, 0)
	}
	assert.InEpsilon(t, observed, expected, 0.25)
}

func TestFitGammaGamma_SimulatedBase(t *testing.T) {
	truth := model.GammaGammaParams{P: 6, Q: 4, V: 15}

	var freq, monetary []float64
	for _, h := range simulatedBase(t, 1000) {
		freq = append(freq, float64(len(h.Spend)))
		monetary = append(monetary, h.MeanSpend())
	}

	fitted, err := model.FitGammaGamma(freq, monetary, model.FitOptions{MaxIterations: 20000})
	require.NoError(t, err)
	assert.Greater(t, fitted.Q, 1.0)
	assert.GreaterOrEqual(t, fitted.LogLikelihood(freq, monetary), truth.LogLikelihood(freq, monetary)-1e-4)
}

func TestFitBetaGeo_PenalizerShrinks(t *testing.T) {
	freq, rec, T, _ := simulation.Columns(simulatedBase(t, 300))

	loose, err := model.FitBetaGeo(freq, rec, T, model.FitOptions{MaxIterations: 20000})
	require.NoError(t, err)
	tight, err := model.FitBetaGeo(freq, rec, T, model.FitOptions{Penalizer: 0.5, MaxIterations: 20000})
	require.NoError(t, err)

	// The penalty acts on the parameters fitted against tenures rescaled to a
	// maximum of 10.
	scale := 10 / 52.0
	norm := func(p model.BetaGeoParams) float64 {
		alpha := p.Alpha * scale
		return p.R*p.R + alpha*alpha + p.A*p.A + p.B*p.B
	}
	assert.Less(t, norm(tight), norm(loose))
}
