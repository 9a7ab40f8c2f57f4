package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"cltv-rfm/internal/pipeline"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeAll(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteCLTVCSV writes the per-customer CLTV table, one expected-sales column
// per computed horizon.
func WriteCLTVCSV(w io.Writer, res *pipeline.CLTVResult) error {
	header := []string{"master_id", "recency_cltv_weekly", "T_weekly", "frequency", "monetary_cltv_avg"}
	for _, weeks := range res.SalesHorizonsWeeks {
		header = append(header, fmt.Sprintf("exp_sales_%d_week", weeks))
	}
	header = append(header, "probability_alive", "exp_average_value", "cltv", "cltv_segment")

	rows := [][]string{header}
	for _, c := range res.Customers {
		row := []string{
			c.ID,
			formatFloat(c.Recency),
			formatFloat(c.T),
			strconv.Itoa(c.Frequency),
			formatFloat(c.MonetaryAvg),
		}
		for _, s := range c.ExpectedSales {
			row = append(row, formatFloat(s))
		}
		row = append(row,
			formatFloat(c.ProbabilityAlive),
			formatFloat(c.ExpectedValue),
			formatFloat(c.CLTV),
			string(c.Grade),
		)
		rows = append(rows, row)
	}
	return writeAll(w, rows)
}

// WriteSegmentsCSV writes the per-customer RFM table.
func WriteSegmentsCSV(w io.Writer, res *pipeline.RFMResult) error {
	rows := [][]string{{
		"master_id", "recency", "frequency", "monetary",
		"recency_score", "frequency_score", "monetary_score", "rf_score", "segment",
	}}
	for _, c := range res.Customers {
		rows = append(rows, []string{
			c.ID,
			strconv.Itoa(c.Recency),
			strconv.Itoa(c.Frequency),
			formatFloat(c.Monetary),
			strconv.Itoa(c.RecencyScore),
			strconv.Itoa(c.FrequencyScore),
			strconv.Itoa(c.MonetaryScore),
			c.RFScore,
			string(c.Segment),
		})
	}
	return writeAll(w, rows)
}

// WriteIDsCSV writes a single master_id column.
func WriteIDsCSV(w io.Writer, ids []string) error {
	rows := make([][]string, 0, len(ids)+1)
	rows = append(rows, []string{"master_id"})
	for _, id := range ids {
		rows = append(rows, []string{id})
	}
	return writeAll(w, rows)
}
