package segment

import (
	"fmt"

	"cltv-rfm/internal/features"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SegmentSummary holds the mean RFM metrics of one segment.
type SegmentSummary struct {
	Segment   Segment `json:"segment"`
	Customers int     `json:"customers"`
	Recency   float64 `json:"recency_mean"`
	Frequency float64 `json:"frequency_mean"`
	Monetary  float64 `json:"monetary_mean"`
}

// Summarize groups customers by segment. Segments without customers are
// omitted; the rest follow the order of Segments.
func Summarize(assignments []Assignment, rows []features.RFMRow) ([]SegmentSummary, error) {
	if len(assignments) != len(rows) {
		return nil, fmt.Errorf("summarize: %d assignments for %d rows", len(assignments), len(rows))
	}

	type columns struct{ recency, frequency, monetary []float64 }
	groups := make(map[Segment]*columns)
	for i, a := range assignments {
		g, ok := groups[a.Segment]
		if !ok {
			g = &columns{}
			groups[a.Segment] = g
		}
		g.recency = append(g.recency, float64(rows[i].Recency))
		g.frequency = append(g.frequency, float64(rows[i].Frequency))
		g.monetary = append(g.monetary, rows[i].Monetary)
	}

	var out []SegmentSummary
	for _, seg := range Segments {
		g, ok := groups[seg]
		if !ok {
			continue
		}
		out = append(out, SegmentSummary{
			Segment:   seg,
			Customers: len(g.recency),
			Recency:   stat.Mean(g.recency, nil),
			Frequency: stat.Mean(g.frequency, nil),
			Monetary:  stat.Mean(g.monetary, nil),
		})
	}
	return out, nil
}

// GradeSummary holds the mean model inputs and outputs of one CLTV grade.
type GradeSummary struct {
	Grade       Grade   `json:"grade"`
	Customers   int     `json:"customers"`
	Recency     float64 `json:"recency_cltv_weekly_mean"`
	T           float64 `json:"T_weekly_mean"`
	Frequency   float64 `json:"frequency_mean"`
	MonetaryAvg float64 `json:"monetary_cltv_avg_mean"`
	CLTV        float64 `json:"cltv_mean"`
	CLTVTotal   float64 `json:"cltv_total"`
}

// SummarizeGrades groups the CLTV table by grade, highest grade first.
func SummarizeGrades(grades []Grade, rows []features.CLTVRow, clv []float64) ([]GradeSummary, error) {
	if len(grades) != len(rows) || len(clv) != len(rows) {
		return nil, fmt.Errorf("summarize grades: %d grades and %d values for %d rows", len(grades), len(clv), len(rows))
	}

	var out []GradeSummary
	for i := len(Grades) - 1; i >= 0; i-- {
		grade := Grades[i]
		var recency, T, frequency, monetary, values []float64
		for j, g := range grades {
			if g != grade {
				continue
			}
			recency = append(recency, rows[j].Recency)
			T = append(T, rows[j].T)
			frequency = append(frequency, float64(rows[j].Frequency))
			monetary = append(monetary, rows[j].MonetaryAvg)
			values = append(values, clv[j])
		}
		if len(values) == 0 {
			continue
		}

		out = append(out, GradeSummary{
			Grade:       grade,
			Customers:   len(values),
			Recency:     stat.Mean(recency, nil),
			T:           stat.Mean(T, nil),
			Frequency:   stat.Mean(frequency, nil),
			MonetaryAvg: stat.Mean(monetary, nil),
			CLTV:        stat.Mean(values, nil),
			CLTVTotal:   floats.Sum(values),
		})
	}
	return out, nil
}
