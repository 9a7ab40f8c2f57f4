package pipeline

import (
	"fmt"
	"time"

	"cltv-rfm/internal/customer"
	"cltv-rfm/internal/features"
	"cltv-rfm/internal/segment"
	"cltv-rfm/internal/stats"

	"github.com/rs/zerolog/log"
)

// RFMCustomer is one row of the segmentation output table.
type RFMCustomer struct {
	features.RFMRow
	RecencyScore   int             `json:"recency_score"`
	FrequencyScore int             `json:"frequency_score"`
	MonetaryScore  int             `json:"monetary_score"`
	RFScore        string          `json:"rf_score"`
	Segment        segment.Segment `json:"segment"`
}

// RFMResult is the outcome of a segmentation run.
type RFMResult struct {
	AnalysisDate time.Time                `json:"analysis_date"`
	Bins         int                      `json:"bins"`
	Caps         []stats.CapResult        `json:"outlier_caps,omitempty"`
	Channels     []features.ChannelStats  `json:"channels"`
	Segments     []segment.SegmentSummary `json:"segments"`
	Customers    []RFMCustomer            `json:"customers"`

	prepared    []features.Customer
	assignments []segment.Assignment
}

// RunRFM prepares the records and assigns every customer a segment.
func RunRFM(records []customer.Record, opts Options) (*RFMResult, error) {
	progress := newStages(opts.progressWriter(), "RFM", 3)
	defer progress.done()

	customers, caps := features.Prepare(records, opts.CapOutliers)
	rows, err := features.AggregateRFM(customers, opts.AnalysisDate)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	progress.next("aggregated")

	assignments, err := segment.Score(rows, opts.ScoreBins)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	progress.next("scored")

	summary, err := segment.Summarize(assignments, rows)
	if err != nil {
		return nil, err
	}
	progress.next("summarised")

	out := make([]RFMCustomer, len(rows))
	for i := range rows {
		a := assignments[i]
		out[i] = RFMCustomer{
			RFMRow:         rows[i],
			RecencyScore:   a.RecencyScore,
			FrequencyScore: a.FrequencyScore,
			MonetaryScore:  a.MonetaryScore,
			RFScore:        a.RFScore,
			Segment:        a.Segment,
		}
	}

	log.Info().Int("customers", len(out)).Int("segments", len(summary)).Msg("RFM segmentation complete")

	return &RFMResult{
		AnalysisDate: opts.AnalysisDate,
		Bins:         opts.ScoreBins,
		Caps:         caps,
		Channels:     features.ChannelSummary(customers),
		Segments:     summary,
		Customers:    out,
		prepared:     customers,
		assignments:  assignments,
	}, nil
}

// Targets returns the ids of customers selected by the rule.
func (r *RFMResult) Targets(rule segment.Rule) []string {
	return segment.Targets(r.assignments, r.prepared, rule)
}
