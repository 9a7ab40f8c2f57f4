package visuals

import (
	"fmt"
	"math"
	"strings"

	"cltv-rfm/internal/features"
	"cltv-rfm/internal/segment"
)

// barChart renders a single-series Mermaid xychart-beta.
func barChart(title, yLabel string, labels []string, values []float64, format string) string {
	var quoted, rendered []string
	maxVal := 0.0
	for i, l := range labels {
		quoted = append(quoted, fmt.Sprintf("\"%s\"", l))
		rendered = append(rendered, fmt.Sprintf(format, values[i]))
		if values[i] > maxVal {
			maxVal = values[i]
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(quoted, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"%s\" 0 --> %d\n", yLabel, int(math.Ceil(math.Max(1, maxVal*1.1)))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(rendered, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// SegmentDistributionChart creates a Mermaid bar chart of customers per RFM segment.
func SegmentDistributionChart(summaries []segment.SegmentSummary) string {
	if len(summaries) == 0 {
		return ""
	}

	labels := make([]string, len(summaries))
	values := make([]float64, len(summaries))
	for i, s := range summaries {
		labels[i] = string(s.Segment)
		values[i] = float64(s.Customers)
	}
	return barChart("Customers per Segment", "Customers", labels, values, "%.0f")
}

// SegmentPie creates a Mermaid pie chart of the segment shares.
func SegmentPie(summaries []segment.SegmentSummary) string {
	if len(summaries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Segment Share\n")
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("    \"%s\" : %d\n", s.Segment, s.Customers))
	}
	sb.WriteString("```")
	return sb.String()
}

// CLTVGradeChart creates a Mermaid bar chart of the mean lifetime value per grade.
func CLTVGradeChart(grades []segment.GradeSummary) string {
	if len(grades) == 0 {
		return ""
	}

	labels := make([]string, len(grades))
	values := make([]float64, len(grades))
	for i, g := range grades {
		labels[i] = string(g.Grade)
		values[i] = g.CLTV
	}
	return barChart("Mean CLTV per Grade", "CLTV", labels, values, "%.1f")
}

// ChannelChart creates a Mermaid bar chart of customers per order channel.
func ChannelChart(channels []features.ChannelStats) string {
	if len(channels) == 0 {
		return ""
	}

	labels := make([]string, len(channels))
	values := make([]float64, len(channels))
	for i, c := range channels {
		labels[i] = c.Channel
		values[i] = float64(c.Customers)
	}
	return barChart("Customers per Order Channel", "Customers", labels, values, "%.0f")
}
