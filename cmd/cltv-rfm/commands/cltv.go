package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"cltv-rfm/internal/pipeline"
	"cltv-rfm/internal/report"

	"github.com/spf13/cobra"
)

var (
	topN         int
	rankBy       string
	horizon      int
	discountRate float64
)

var cltvCmd = &cobra.Command{
	Use:   "cltv",
	Short: "Fit BG/NBD and Gamma-Gamma and score customer lifetime value",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("horizon") {
			cfg.HorizonMonths = horizon
		}
		if cmd.Flags().Changed("discount") {
			cfg.DiscountRate = discountRate
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		records, source, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}

		res, err := pipeline.RunCLTV(records, cfg.PipelineOptions())
		if err != nil {
			return err
		}
		metric, err := res.Metric(rankBy)
		if err != nil {
			return err
		}

		ex := newExporter("cltv", source)
		recordCLTV(ex.manifest, res)
		if err := ex.save("cltv", ".csv", func(w io.Writer) error { return report.WriteCLTVCSV(w, res) }); err != nil {
			return err
		}
		if err := ex.json("cltv", res); err != nil {
			return err
		}
		if err := ex.save("cltv_summary", ".md", func(w io.Writer) error { return report.WriteSummaryMarkdown(w, res, nil) }); err != nil {
			return err
		}
		if err := ex.finish(); err != nil {
			return err
		}

		return printTop(cmd.OutOrStdout(), res, res.Top(topN, metric))
	},
}

func recordCLTV(m *report.Manifest, res *pipeline.CLTVResult) {
	m.SetParameter("horizon_months", res.HorizonMonths)
	m.SetParameter("discount_rate", res.DiscountRate)
	m.SetParameter("sales_horizons_weeks", res.SalesHorizonsWeeks)
	m.SetParameter("bg_nbd", res.BetaGeo)
	m.SetParameter("gamma_gamma", res.GammaGamma)
	m.SetCount("customers", res.Population.Customers)
	m.SetCount("modelled", res.Population.Retained)
	m.SetCount("excluded_single_purchase", res.Population.Excluded)
}

func printTop(out io.Writer, res *pipeline.CLTVResult, top []pipeline.CLTVCustomer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "MASTER_ID\tFREQ\tRECENCY_W\tT_W")
	for _, weeks := range res.SalesHorizonsWeeks {
		fmt.Fprintf(tw, "\tSALES_%dW", weeks)
	}
	fmt.Fprintln(tw, "\tP_ALIVE\tEXP_VALUE\tCLTV\tGRADE")
	for _, c := range top {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f", c.ID, c.Frequency, c.Recency, c.T)
		for _, s := range c.ExpectedSales {
			fmt.Fprintf(tw, "\t%.3f", s)
		}
		fmt.Fprintf(tw, "\t%.3f\t%.2f\t%.2f\t%s\n", c.ProbabilityAlive, c.ExpectedValue, c.CLTV, c.Grade)
	}
	return tw.Flush()
}

func init() {
	cltvCmd.Flags().IntVar(&topN, "top", 10, "number of customers to print (-1 for all)")
	cltvCmd.Flags().StringVar(&rankBy, "rank", "cltv", "ranking: cltv, value, alive or sales:<weeks>")
	cltvCmd.Flags().IntVar(&horizon, "horizon", 6, "CLTV horizon in months")
	cltvCmd.Flags().Float64Var(&discountRate, "discount", 0.01, "periodic discount rate in [0, 1)")
	rootCmd.AddCommand(cltvCmd)
}
