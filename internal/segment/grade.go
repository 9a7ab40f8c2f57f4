package segment

import (
	"fmt"

	"cltv-rfm/internal/stats"
)

// Grade is a CLTV quartile, D lowest and A highest.
type Grade string

const (
	GradeD Grade = "D"
	GradeC Grade = "C"
	GradeB Grade = "B"
	GradeA Grade = "A"
)

// Grades lists the grades from lowest to highest.
var Grades = []Grade{GradeD, GradeC, GradeB, GradeA}

// GradeCLTV assigns quartile grades over the CLTV column.
func GradeCLTV(values []float64) ([]Grade, error) {
	scores, err := stats.QuantileScore("clv", values, len(Grades), stats.Ascending)
	if err != nil {
		return nil, fmt.Errorf("CLTV grades: %w", err)
	}
	out := make([]Grade, len(scores))
	for i, s := range scores {
		out[i] = Grades[s-1]
	}
	return out, nil
}
