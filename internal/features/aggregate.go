package features

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidHistory marks a customer whose timestamps contradict the analysis date.
var ErrInvalidHistory = errors.New("invalid purchase history")

const daysPerWeek = 7.0

// CLTVRow holds the sufficient statistics of the probabilistic models, in weeks.
type CLTVRow struct {
	ID          string  `json:"master_id"`
	Recency     float64 `json:"recency_cltv_weekly"`
	T           float64 `json:"T_weekly"`
	Frequency   int     `json:"frequency"`
	MonetaryAvg float64 `json:"monetary_cltv_avg"`
}

// RFMRow holds the segmentation metrics. Recency counts days since the last
// purchase and Monetary is total spend.
type RFMRow struct {
	ID        string  `json:"master_id"`
	Recency   int     `json:"recency"`
	Frequency int     `json:"frequency"`
	Monetary  float64 `json:"monetary"`
}

// CLTVSummary reports how many customers were kept for model fitting.
type CLTVSummary struct {
	Customers int `json:"customers"`
	Retained  int `json:"retained"`
	Excluded  int `json:"excluded_single_purchase"`
}

// wholeDays mirrors a calendar difference: partial days are dropped.
func wholeDays(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

func checkHistory(c Customer, analysisDate time.Time) error {
	if c.LastOrderDate.After(analysisDate) {
		return fmt.Errorf("%w: customer %s last purchased on %s, after analysis date %s",
			ErrInvalidHistory, c.MasterID, c.LastOrderDate.Format(time.DateOnly), analysisDate.Format(time.DateOnly))
	}
	if c.LastOrderDate.Before(c.FirstOrderDate) {
		return fmt.Errorf("%w: customer %s last purchase precedes first purchase", ErrInvalidHistory, c.MasterID)
	}
	return nil
}

// AggregateCLTV builds the model input table. Recency is the span between first
// and last purchase and T the span from first purchase to the analysis date,
// both in weeks. Monetary is the average spend per purchase. Customers with a
// single purchase carry no repeat signal and are dropped.
func AggregateCLTV(customers []Customer, analysisDate time.Time) ([]CLTVRow, CLTVSummary, error) {
	summary := CLTVSummary{Customers: len(customers)}
	rows := make([]CLTVRow, 0, len(customers))

	for _, c := range customers {
		if err := checkHistory(c, analysisDate); err != nil {
			return nil, summary, err
		}
		if c.TotalPurchases <= 1 {
			summary.Excluded++
			continue
		}

		rows = append(rows, CLTVRow{
			ID:          c.MasterID,
			Recency:     float64(wholeDays(c.FirstOrderDate, c.LastOrderDate)) / daysPerWeek,
			T:           float64(wholeDays(c.FirstOrderDate, analysisDate)) / daysPerWeek,
			Frequency:   c.TotalPurchases,
			MonetaryAvg: c.TotalSpend / float64(c.TotalPurchases),
		})
	}

	summary.Retained = len(rows)
	return rows, summary, nil
}

// AggregateRFM builds the segmentation table.
func AggregateRFM(customers []Customer, analysisDate time.Time) ([]RFMRow, error) {
	rows := make([]RFMRow, 0, len(customers))
	for _, c := range customers {
		if err := checkHistory(c, analysisDate); err != nil {
			return nil, err
		}
		rows = append(rows, RFMRow{
			ID:        c.MasterID,
			Recency:   wholeDays(c.LastOrderDate, analysisDate),
			Frequency: c.TotalPurchases,
			Monetary:  c.TotalSpend,
		})
	}
	return rows, nil
}

// Columns splits a CLTV table into the model's column vectors.
func Columns(rows []CLTVRow) (frequency, recency, t, monetary []float64) {
	frequency = make([]float64, len(rows))
	recency = make([]float64, len(rows))
	t = make([]float64, len(rows))
	monetary = make([]float64, len(rows))
	for i, r := range rows {
		frequency[i] = float64(r.Frequency)
		recency[i] = r.Recency
		t[i] = r.T
		monetary[i] = r.MonetaryAvg
	}
	return frequency, recency, t, monetary
}
