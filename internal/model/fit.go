package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/optimize"
)

var (
	// ErrInsufficientData is returned when too few customers remain to fit a model.
	ErrInsufficientData = errors.New("insufficient data to fit model")
	// ErrNotConverged is returned when the optimiser stops before reaching a minimum.
	ErrNotConverged = errors.New("model fit did not converge")
	// ErrInvalidInput marks malformed model inputs or parameters.
	ErrInvalidInput = errors.New("invalid model input")
)

const (
	DefaultMaxIterations = 2000
	DefaultMinCustomers  = 10
)

// FitOptions controls model fitting.
type FitOptions struct {
	// Penalizer is the L2 coefficient applied to the fitted parameters.
	Penalizer float64
	// MinCustomers is the smallest population that may be fitted.
	MinCustomers int
	// MaxIterations caps the optimiser's major iterations.
	MaxIterations int
}

func (o FitOptions) withDefaults() FitOptions {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.MinCustomers <= 0 {
		o.MinCustomers = 1
	}
	return o
}

func (o FitOptions) check(model string, n int) error {
	if o.Penalizer < 0 || math.IsNaN(o.Penalizer) {
		return fmt.Errorf("%w: %s penalizer must be non-negative, got %v", ErrInvalidInput, model, o.Penalizer)
	}
	if n < o.MinCustomers {
		return fmt.Errorf("%w: %s needs at least %d customers, got %d", ErrInsufficientData, model, o.MinCustomers, n)
	}
	return nil
}

// l2 is the penalty term Σ params².
func l2(params []float64) float64 {
	var s float64
	for _, p := range params {
		s += p * p
	}
	return s
}

// minimizeLogSpace minimises objective over strictly positive parameters by
// running Nelder-Mead on their logarithms, starting from all parameters = 1.
// It returns the parameters on their natural scale.
func minimizeLogSpace(model string, dim int, objective func(params []float64) float64, opts FitOptions) ([]float64, error) {
	params := make([]float64, dim)
	problem := optimize.Problem{
		Func: func(logParams []float64) float64 {
			for i, lp := range logParams {
				params[i] = math.Exp(lp)
			}
			v := objective(params)
			if math.IsNaN(v) {
				return math.Inf(1)
			}
			return v
		},
	}

	settings := &optimize.Settings{
		MajorIterations: opts.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 100,
		},
	}

	res, err := optimize.Minimize(problem, make([]float64, dim), settings, &optimize.NelderMead{})
	if res == nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotConverged, model, err)
	}
	if err != nil || res.Status.Early() || math.IsInf(res.F, 0) || math.IsNaN(res.F) {
		return nil, fmt.Errorf("%w: %s stopped with status %s after %d iterations (objective %v)",
			ErrNotConverged, model, res.Status, res.MajorIterations, res.F)
	}

	out := make([]float64, dim)
	for i, lp := range res.X {
		out[i] = math.Exp(lp)
	}

	log.Debug().
		Str("model", model).
		Str("status", res.Status.String()).
		Int("iterations", res.MajorIterations).
		Int("evaluations", res.FuncEvaluations).
		Float64("objective", res.F).
		Msg("Optimiser finished")

	return out, nil
}

func checkFinite(model, column string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s %s[%d] is not finite", ErrInvalidInput, model, column, i)
		}
	}
	return nil
}

func checkPositive(model string, names []string, values []float64) error {
	for i, v := range values {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s parameter %s must be positive and finite, got %v", ErrInvalidInput, model, names[i], v)
		}
	}
	return nil
}
