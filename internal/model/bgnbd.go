package model

import (
	"fmt"
	"math"
	"slices"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mathext"
)

// BetaGeoParams are the fitted BG/NBD parameters. Transaction rates follow
// Gamma(R, Alpha) across customers and dropout probabilities Beta(A, B).
type BetaGeoParams struct {
	R         float64 `json:"r" yaml:"r"`
	Alpha     float64 `json:"alpha" yaml:"alpha"`
	A         float64 `json:"a" yaml:"a"`
	B         float64 `json:"b" yaml:"b"`
	Penalizer float64 `json:"penalizer" yaml:"penalizer"`
}

// Validate reports whether all parameters are finite and positive.
func (p BetaGeoParams) Validate() error {
	return checkPositive("BG/NBD", []string{"r", "alpha", "a", "b"}, []float64{p.R, p.Alpha, p.A, p.B})
}

// betaGeoLogLikelihood is the individual BG/NBD log-likelihood of x repeat
// purchases, the last at tx, over an observation period of length T.
func betaGeoLogLikelihood(r, alpha, a, b, x, tx, T float64) float64 {
	head := mathext.Lbeta(a, b+x) - mathext.Lbeta(a, b) +
		lgamma(r+x) - lgamma(r) + r*math.Log(alpha)

	alive := -(r + x) * math.Log(alpha+T)
	dropped := math.Inf(-1)
	if x > 0 {
		dropped = math.Log(a) - math.Log(b+x-1) - (r+x)*math.Log(alpha+tx)
	}
	return head + logAddExp(alive, dropped)
}

// betaGeoObjective is the penalised negative mean log-likelihood.
func betaGeoObjective(params, frequency, recency, T []float64, penalizer float64) float64 {
	r, alpha, a, b := params[0], params[1], params[2], params[3]
	var ll float64
	for i := range frequency {
		ll += betaGeoLogLikelihood(r, alpha, a, b, frequency[i], recency[i], T[i])
	}
	return -ll/float64(len(frequency)) + penalizer*l2(params)
}

func checkHistories(model string, frequency, recency, T []float64) error {
	if len(recency) != len(frequency) || len(T) != len(frequency) {
		return fmt.Errorf("%w: %s column lengths differ (%d, %d, %d)",
			ErrInvalidInput, model, len(frequency), len(recency), len(T))
	}
	for _, col := range []struct {
		name   string
		values []float64
	}{{"frequency", frequency}, {"recency", recency}, {"T", T}} {
		if err := checkFinite(model, col.name, col.values); err != nil {
			return err
		}
	}
	for i := range frequency {
		if frequency[i] < 0 || recency[i] < 0 || recency[i] > T[i] {
			return fmt.Errorf("%w: %s row %d has frequency %v, recency %v, T %v",
				ErrInvalidInput, model, i, frequency[i], recency[i], T[i])
		}
	}
	return nil
}

// FitBetaGeo fits the BG/NBD model by maximising the penalised likelihood.
// Time columns are rescaled so the longest tenure is 10 before optimisation,
// and Alpha is mapped back to the input's time unit.
func FitBetaGeo(frequency, recency, T []float64, opts FitOptions) (BetaGeoParams, error) {
	opts = opts.withDefaults()
	if err := checkHistories("BG/NBD", frequency, recency, T); err != nil {
		return BetaGeoParams{}, err
	}
	if err := opts.check("BG/NBD", len(frequency)); err != nil {
		return BetaGeoParams{}, err
	}

	maxT := slices.Max(T)
	if maxT <= 0 {
		return BetaGeoParams{}, fmt.Errorf("%w: BG/NBD needs a positive observation period", ErrInsufficientData)
	}
	scale := 10 / maxT
	scaledRecency := make([]float64, len(recency))
	scaledT := make([]float64, len(T))
	for i := range T {
		scaledRecency[i] = recency[i] * scale
		scaledT[i] = T[i] * scale
	}

	params, err := minimizeLogSpace("BG/NBD", 4, func(p []float64) float64 {
		return betaGeoObjective(p, frequency, scaledRecency, scaledT, opts.Penalizer)
	}, opts)
	if err != nil {
		return BetaGeoParams{}, err
	}

	fitted := BetaGeoParams{
		R:         params[0],
		Alpha:     params[1] / scale,
		A:         params[2],
		B:         params[3],
		Penalizer: opts.Penalizer,
	}

	log.Info().
		Int("customers", len(frequency)).
		Float64("r", fitted.R).
		Float64("alpha", fitted.Alpha).
		Float64("a", fitted.A).
		Float64("b", fitted.B).
		Msg("BG/NBD model fitted")

	return fitted, nil
}

// LogLikelihood returns the mean log-likelihood of the given histories.
func (p BetaGeoParams) LogLikelihood(frequency, recency, T []float64) float64 {
	if len(frequency) == 0 {
		return 0
	}
	var ll float64
	for i := range frequency {
		ll += betaGeoLogLikelihood(p.R, p.Alpha, p.A, p.B, frequency[i], recency[i], T[i])
	}
	return ll / float64(len(frequency))
}

// Predict returns the expected number of purchases in the t time units that
// follow the observation period of a customer with x repeat purchases, the
// last at tx, observed for T.
func (p BetaGeoParams) Predict(t, x, tx, T float64) float64 {
	if t <= 0 {
		return 0
	}
	r, alpha, a, b := p.R, p.Alpha, p.A, p.B

	// 2F1(r+x, b+x; c; z) after Euler's transformation, with the
	// (1-z)^(c-a-b) factor folded into the power below.
	z := t / (alpha + T + t)
	c := a + b + x - 1
	hyp := hyp2f1(a+b-1-r, a-1, c, z)

	first := c / (a - 1)
	second := 1 - math.Pow(1-z, a-1)*hyp

	den := 1.0
	if x > 0 {
		den += a / (b + x - 1) * math.Pow((alpha+T)/(alpha+tx), r+x)
	}
	return first * second / den
}

// PredictAll applies Predict to every customer.
func (p BetaGeoParams) PredictAll(t float64, frequency, recency, T []float64) []float64 {
	out := make([]float64, len(frequency))
	for i := range frequency {
		out[i] = p.Predict(t, frequency[i], recency[i], T[i])
	}
	return out
}

// ProbabilityAlive returns the probability that a customer with the given
// history has not dropped out by the end of the observation period.
func (p BetaGeoParams) ProbabilityAlive(x, tx, T float64) float64 {
	if x == 0 {
		return 1
	}
	logRatio := (p.R+x)*math.Log((p.Alpha+T)/(p.Alpha+tx)) + math.Log(p.A/(p.B+x-1))
	return 1 / (1 + math.Exp(logRatio))
}
