package pipeline

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"cltv-rfm/internal/customer"
	"cltv-rfm/internal/features"
	"cltv-rfm/internal/model"
	"cltv-rfm/internal/segment"
	"cltv-rfm/internal/stats"

	"github.com/rs/zerolog/log"
)

// CLTVCustomer is one row of the CLTV output table.
type CLTVCustomer struct {
	features.CLTVRow
	ExpectedSales    []float64     `json:"expected_sales"`
	ProbabilityAlive float64       `json:"probability_alive"`
	ExpectedValue    float64       `json:"exp_average_value"`
	CLTV             float64       `json:"cltv"`
	Grade            segment.Grade `json:"cltv_segment,omitempty"`
}

// CLTVResult is the outcome of a CLTV run.
type CLTVResult struct {
	AnalysisDate       time.Time               `json:"analysis_date"`
	HorizonMonths      int                     `json:"horizon_months"`
	DiscountRate       float64                 `json:"discount_rate"`
	SalesHorizonsWeeks []int                   `json:"sales_horizons_weeks"`
	BetaGeo            model.BetaGeoParams     `json:"bg_nbd"`
	GammaGamma         model.GammaGammaParams  `json:"gamma_gamma"`
	Population         features.CLTVSummary    `json:"population"`
	Caps               []stats.CapResult       `json:"outlier_caps,omitempty"`
	Channels           []features.ChannelStats `json:"channels"`
	Grades             []segment.GradeSummary  `json:"grades,omitempty"`
	Customers          []CLTVCustomer          `json:"customers"`
}

// RunCLTV prepares the records, fits both models and scores every repeat
// customer's lifetime value over the configured horizon. Grades are left
// empty when the values cannot be cut into quartiles.
func RunCLTV(records []customer.Record, opts Options) (*CLTVResult, error) {
	progress := newStages(opts.progressWriter(), "CLTV", 5)
	defer progress.done()

	customers, caps := features.Prepare(records, opts.CapOutliers)
	progress.next("prepared")

	rows, population, err := features.AggregateCLTV(customers, opts.AnalysisDate)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	log.Info().
		Int("customers", population.Customers).
		Int("retained", population.Retained).
		Int("excluded", population.Excluded).
		Msg("CLTV population prepared")
	progress.next("aggregated")

	freq, rec, T, monetary := features.Columns(rows)

	var bg model.BetaGeoParams
	if opts.BetaGeoParams != nil {
		bg = *opts.BetaGeoParams
		if err := bg.Validate(); err != nil {
			return nil, err
		}
	} else if bg, err = model.FitBetaGeo(freq, rec, T, opts.BetaGeo); err != nil {
		return nil, fmt.Errorf("fit BG/NBD: %w", err)
	}
	progress.next("BG/NBD")

	var gg model.GammaGammaParams
	if opts.GammaGammaParams != nil {
		gg = *opts.GammaGammaParams
		if err := gg.Validate(); err != nil {
			return nil, err
		}
	} else if gg, err = model.FitGammaGamma(freq, monetary, opts.GammaGamma); err != nil {
		return nil, fmt.Errorf("fit Gamma-Gamma: %w", err)
	}
	progress.next("Gamma-Gamma")

	values, err := gg.ExpectedAverageProfits(freq, monetary)
	if err != nil {
		return nil, err
	}
	clv, err := model.CustomerLifetimeValue(bg, gg, freq, rec, T, monetary, opts.HorizonMonths, model.Weekly, opts.DiscountRate)
	if err != nil {
		return nil, fmt.Errorf("lifetime value: %w", err)
	}
	var gradeSummary []segment.GradeSummary
	grades, err := segment.GradeCLTV(clv)
	var degenerate *stats.QuantileDegeneracyError
	switch {
	case errors.As(err, &degenerate):
		log.Warn().Err(err).Msg("CLTV grades skipped")
		grades = nil
	case err != nil:
		return nil, err
	default:
		if gradeSummary, err = segment.SummarizeGrades(grades, rows, clv); err != nil {
			return nil, err
		}
	}

	out := make([]CLTVCustomer, len(rows))
	for i, r := range rows {
		sales := make([]float64, len(opts.SalesHorizonsWeeks))
		for k, weeks := range opts.SalesHorizonsWeeks {
			sales[k] = bg.Predict(float64(weeks), freq[i], rec[i], T[i])
		}
		out[i] = CLTVCustomer{
			CLTVRow:          r,
			ExpectedSales:    sales,
			ProbabilityAlive: bg.ProbabilityAlive(freq[i], rec[i], T[i]),
			ExpectedValue:    values[i],
			CLTV:             clv[i],
		}
		if grades != nil {
			out[i].Grade = grades[i]
		}
	}
	progress.next("scored")

	return &CLTVResult{
		AnalysisDate:       opts.AnalysisDate,
		HorizonMonths:      opts.HorizonMonths,
		DiscountRate:       opts.DiscountRate,
		SalesHorizonsWeeks: slices.Clone(opts.SalesHorizonsWeeks),
		BetaGeo:            bg,
		GammaGamma:         gg,
		Population:         population,
		Caps:               caps,
		Channels:           features.ChannelSummary(customers),
		Grades:             gradeSummary,
		Customers:          out,
	}, nil
}

// Metric extracts the ranking value of a customer.
type Metric func(CLTVCustomer) float64

var (
	ByCLTV             Metric = func(c CLTVCustomer) float64 { return c.CLTV }
	ByExpectedValue    Metric = func(c CLTVCustomer) float64 { return c.ExpectedValue }
	ByProbabilityAlive Metric = func(c CLTVCustomer) float64 { return c.ProbabilityAlive }
)

// BySales ranks by expected purchases at the k-th sales horizon.
func BySales(k int) Metric {
	return func(c CLTVCustomer) float64 { return c.ExpectedSales[k] }
}

// Metric resolves a ranking name: cltv, value, alive, or sales:<weeks> for a
// configured sales horizon.
func (r *CLTVResult) Metric(name string) (Metric, error) {
	switch name {
	case "cltv":
		return ByCLTV, nil
	case "value":
		return ByExpectedValue, nil
	case "alive":
		return ByProbabilityAlive, nil
	}
	if weeks, ok := strings.CutPrefix(name, "sales:"); ok {
		w, err := strconv.Atoi(weeks)
		if err != nil {
			return nil, fmt.Errorf("invalid sales horizon %q", weeks)
		}
		if k := slices.Index(r.SalesHorizonsWeeks, w); k >= 0 {
			return BySales(k), nil
		}
		return nil, fmt.Errorf("sales horizon %d weeks was not computed (have %v)", w, r.SalesHorizonsWeeks)
	}
	return nil, fmt.Errorf("unknown ranking %q", name)
}

// Top returns the n customers with the highest metric, ties in table order.
func (r *CLTVResult) Top(n int, by Metric) []CLTVCustomer {
	ranked := slices.Clone(r.Customers)
	slices.SortStableFunc(ranked, func(a, b CLTVCustomer) int {
		return cmp.Compare(by(b), by(a))
	})
	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
