package model

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
)

// GammaGammaParams are the fitted Gamma-Gamma parameters. Spend per
// transaction follows Gamma(P, ν) with ν ~ Gamma(Q, V) across customers.
type GammaGammaParams struct {
	P         float64 `json:"p" yaml:"p"`
	Q         float64 `json:"q" yaml:"q"`
	V         float64 `json:"v" yaml:"v"`
	Penalizer float64 `json:"penalizer" yaml:"penalizer"`
}

// Validate reports whether the parameters are positive and the population
// mean spend exists (Q > 1).
func (p GammaGammaParams) Validate() error {
	if err := checkPositive("Gamma-Gamma", []string{"p", "q", "v"}, []float64{p.P, p.Q, p.V}); err != nil {
		return err
	}
	if p.Q <= 1 {
		return fmt.Errorf("%w: Gamma-Gamma q must exceed 1 for a finite mean spend, got %v", ErrInvalidInput, p.Q)
	}
	return nil
}

func gammaGammaLogLikelihood(p, q, v, x, m float64) float64 {
	px := p * x
	return lgamma(px+q) - lgamma(px) - lgamma(q) +
		q*math.Log(v) + (px-1)*math.Log(m) + px*math.Log(x) -
		(px+q)*math.Log(x*m+v)
}

func gammaGammaObjective(params, frequency, monetary []float64, penalizer float64) float64 {
	p, q, v := params[0], params[1], params[2]
	var ll float64
	for i := range frequency {
		ll += gammaGammaLogLikelihood(p, q, v, frequency[i], monetary[i])
	}
	return -ll/float64(len(frequency)) + penalizer*l2(params)
}

func checkSpend(frequency, monetary []float64) error {
	if len(monetary) != len(frequency) {
		return fmt.Errorf("%w: Gamma-Gamma column lengths differ (%d, %d)", ErrInvalidInput, len(frequency), len(monetary))
	}
	if err := checkFinite("Gamma-Gamma", "frequency", frequency); err != nil {
		return err
	}
	if err := checkFinite("Gamma-Gamma", "monetary", monetary); err != nil {
		return err
	}
	for i := range frequency {
		if frequency[i] <= 0 || monetary[i] <= 0 {
			return fmt.Errorf("%w: Gamma-Gamma row %d needs positive frequency and monetary value, got %v and %v",
				ErrInvalidInput, i, frequency[i], monetary[i])
		}
	}
	return nil
}

// FitGammaGamma fits the Gamma-Gamma spend model on customers with at least
// one transaction and a positive average spend.
func FitGammaGamma(frequency, monetary []float64, opts FitOptions) (GammaGammaParams, error) {
	opts = opts.withDefaults()
	if err := checkSpend(frequency, monetary); err != nil {
		return GammaGammaParams{}, err
	}
	if err := opts.check("Gamma-Gamma", len(frequency)); err != nil {
		return GammaGammaParams{}, err
	}

	params, err := minimizeLogSpace("Gamma-Gamma", 3, func(p []float64) float64 {
		return gammaGammaObjective(p, frequency, monetary, opts.Penalizer)
	}, opts)
	if err != nil {
		return GammaGammaParams{}, err
	}

	fitted := GammaGammaParams{P: params[0], Q: params[1], V: params[2], Penalizer: opts.Penalizer}

	log.Info().
		Int("customers", len(frequency)).
		Float64("p", fitted.P).
		Float64("q", fitted.Q).
		Float64("v", fitted.V).
		Msg("Gamma-Gamma model fitted")

	return fitted, fitted.Validate()
}

// LogLikelihood returns the mean log-likelihood of the given spend histories.
func (p GammaGammaParams) LogLikelihood(frequency, monetary []float64) float64 {
	if len(frequency) == 0 {
		return 0
	}
	var ll float64
	for i := range frequency {
		ll += gammaGammaLogLikelihood(p.P, p.Q, p.V, frequency[i], monetary[i])
	}
	return ll / float64(len(frequency))
}

// ConditionalExpectedAverageProfit returns the expected spend per transaction
// for a customer with x transactions averaging m. It is a weighted mean of the
// population mean and the customer's own average.
func (p GammaGammaParams) ConditionalExpectedAverageProfit(x, m float64) float64 {
	px := p.P * x
	w := px / (px + p.Q - 1)
	return (1-w)*p.V*p.P/(p.Q-1) + w*m
}

// ExpectedAverageProfits applies ConditionalExpectedAverageProfit to every customer.
func (p GammaGammaParams) ExpectedAverageProfits(frequency, monetary []float64) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(monetary) != len(frequency) {
		return nil, fmt.Errorf("%w: column lengths differ (%d, %d)", ErrInvalidInput, len(frequency), len(monetary))
	}
	out := make([]float64, len(frequency))
	for i := range frequency {
		out[i] = p.ConditionalExpectedAverageProfit(frequency[i], monetary[i])
	}
	return out, nil
}
