package commands

import (
	"fmt"

	"cltv-rfm/internal/config"
	"cltv-rfm/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose      bool
	profilePath  string
	analysisDate string
	csvPath      string
	dsn          string
	table        string
	exportDir    string
	noExport     bool

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "cltv-rfm",
	Short: "Customer lifetime value and RFM segmentation for omnichannel retail",
	Long: `cltv-rfm scores a customer base with a BG/NBD purchase-frequency model and a
Gamma-Gamma monetary model, and segments it by recency, frequency and monetary value.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if err := logging.Init(verbose); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if profilePath != "" {
			if err := cfg.LoadProfile(profilePath); err != nil {
				return err
			}
		}
		if err := applyFlags(cmd); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("analysisDate", cfg.AnalysisDate.Format("2006-01-02")).
			Msg("cltv-rfm starting")
		return nil
	},
}

// applyFlags lets explicitly set flags win over environment and profile.
func applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("analysis-date") {
		d, err := config.ParseDate(analysisDate)
		if err != nil {
			return err
		}
		cfg.AnalysisDate = d
	}
	if flags.Changed("csv") {
		cfg.CSVPath = csvPath
	}
	if flags.Changed("dsn") {
		cfg.DSN = dsn
	}
	if flags.Changed("table") {
		cfg.Table = table
	}
	if flags.Changed("export-dir") {
		cfg.ExportDir = exportDir
	}
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&profilePath, "config", "", "YAML run profile")
	pf.StringVar(&analysisDate, "analysis-date", "", "reference date, YYYY-MM-DD (default 2021-06-01)")
	pf.StringVar(&csvPath, "csv", "", "customer CSV file")
	pf.StringVar(&dsn, "dsn", "", "customer database (mysql://, mariadb:// or postgres:// URL)")
	pf.StringVar(&table, "table", "", "customer table for --dsn (default flo_data_20k)")
	pf.StringVar(&exportDir, "export-dir", "", "directory for exported files")
	pf.BoolVar(&noExport, "no-export", false, "print results without writing files")
}
