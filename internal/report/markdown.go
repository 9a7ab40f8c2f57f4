package report

import (
	"fmt"
	"io"
	"strings"

	"cltv-rfm/internal/features"
	"cltv-rfm/internal/pipeline"
	"cltv-rfm/internal/visuals"
)

// WriteSummaryMarkdown renders a human-readable run summary with Mermaid
// charts. Either result may be nil.
func WriteSummaryMarkdown(w io.Writer, cltv *pipeline.CLTVResult, rfm *pipeline.RFMResult) error {
	var sb strings.Builder
	sb.WriteString("# Customer Value Summary\n")

	if cltv != nil {
		sb.WriteString("\n## CLTV\n\n")
		sb.WriteString(fmt.Sprintf("Analysis date: %s, horizon: %d months, discount rate: %g\n\n",
			cltv.AnalysisDate.Format("2006-01-02"), cltv.HorizonMonths, cltv.DiscountRate))
		sb.WriteString(fmt.Sprintf("Customers: %d, modelled: %d, excluded single purchase: %d\n\n",
			cltv.Population.Customers, cltv.Population.Retained, cltv.Population.Excluded))

		bg, gg := cltv.BetaGeo, cltv.GammaGamma
		sb.WriteString(fmt.Sprintf("BG/NBD: r=%.4f alpha=%.4f a=%.4f b=%.4f\n\n", bg.R, bg.Alpha, bg.A, bg.B))
		sb.WriteString(fmt.Sprintf("Gamma-Gamma: p=%.4f q=%.4f v=%.4f\n\n", gg.P, gg.Q, gg.V))

		sb.WriteString("| Grade | Customers | Recency | T | Frequency | Monetary | CLTV | Total |\n")
		sb.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, g := range cltv.Grades {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.1f | %.1f | %.1f | %.2f | %.2f | %.2f |\n",
				g.Grade, g.Customers, g.Recency, g.T, g.Frequency, g.MonetaryAvg, g.CLTV, g.CLTVTotal))
		}
		sb.WriteString("\n")
		sb.WriteString(visuals.CLTVGradeChart(cltv.Grades))
		sb.WriteString("\n")
	}

	if rfm != nil {
		sb.WriteString("\n## RFM Segments\n\n")
		sb.WriteString("| Segment | Customers | Recency | Frequency | Monetary |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, s := range rfm.Segments {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.1f | %.1f | %.2f |\n",
				s.Segment, s.Customers, s.Recency, s.Frequency, s.Monetary))
		}
		sb.WriteString("\n")
		sb.WriteString(visuals.SegmentDistributionChart(rfm.Segments))
		sb.WriteString("\n\n")
		sb.WriteString(visuals.SegmentPie(rfm.Segments))
		sb.WriteString("\n")
	}

	channels := channelsOf(cltv, rfm)
	if len(channels) > 0 {
		sb.WriteString("\n## Order Channels\n\n")
		sb.WriteString("| Channel | Customers | Purchases | Spend |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, c := range channels {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f |\n", c.Channel, c.Customers, c.TotalPurchases, c.TotalSpend))
		}
		sb.WriteString("\n")
		sb.WriteString(visuals.ChannelChart(channels))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func channelsOf(cltv *pipeline.CLTVResult, rfm *pipeline.RFMResult) []features.ChannelStats {
	if cltv != nil {
		return cltv.Channels
	}
	if rfm != nil {
		return rfm.Channels
	}
	return nil
}
