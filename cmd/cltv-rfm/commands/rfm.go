package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"cltv-rfm/internal/pipeline"
	"cltv-rfm/internal/report"

	"github.com/spf13/cobra"
)

var scoreBins int

var rfmCmd = &cobra.Command{
	Use:   "rfm",
	Short: "Score recency, frequency and monetary value and assign segments",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("bins") {
			cfg.ScoreBins = scoreBins
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		records, source, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}
		res, err := pipeline.RunRFM(records, cfg.PipelineOptions())
		if err != nil {
			return err
		}

		ex := newExporter("rfm", source)
		recordRFM(ex.manifest, res)
		if err := ex.save("rfm_segments", ".csv", func(w io.Writer) error { return report.WriteSegmentsCSV(w, res) }); err != nil {
			return err
		}
		if err := ex.save("rfm_summary", ".md", func(w io.Writer) error { return report.WriteSummaryMarkdown(w, nil, res) }); err != nil {
			return err
		}
		if err := ex.finish(); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEGMENT\tCUSTOMERS\tRECENCY\tFREQUENCY\tMONETARY")
		for _, s := range res.Segments {
			fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f\t%.2f\n", s.Segment, s.Customers, s.Recency, s.Frequency, s.Monetary)
		}
		return tw.Flush()
	},
}

func recordRFM(m *report.Manifest, res *pipeline.RFMResult) {
	m.SetParameter("score_bins", res.Bins)
	m.SetParameter("cap_outliers", cfg.CapOutliers)
	m.SetCount("customers", len(res.Customers))
	for _, s := range res.Segments {
		m.SetCount("segment_"+string(s.Segment), s.Customers)
	}
}

func init() {
	rfmCmd.Flags().IntVar(&scoreBins, "bins", 5, "number of quantile bins per score")
	rootCmd.AddCommand(rfmCmd)
}
