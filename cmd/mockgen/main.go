package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"cltv-rfm/internal/customer"
	"cltv-rfm/internal/report"
	"cltv-rfm/internal/simulation"
)

func main() {
	cfg := simulation.DefaultConfig()

	out := flag.String("out", "./data/customers.csv", "Output CSV file")
	count := flag.Int("count", cfg.Customers, "Number of customers to generate")
	seed := flag.Uint64("seed", cfg.Seed, "Random seed")
	date := flag.String("analysis-date", cfg.AnalysisDate.Format(time.DateOnly), "Analysis date; no purchase falls after it")
	online := flag.Float64("online-share", cfg.OnlineShare, "Probability that a purchase is online")
	flag.Float64Var(&cfg.BetaGeo.R, "r", cfg.BetaGeo.R, "BG/NBD r")
	flag.Float64Var(&cfg.BetaGeo.Alpha, "alpha", cfg.BetaGeo.Alpha, "BG/NBD alpha (weeks)")
	flag.Float64Var(&cfg.BetaGeo.A, "a", cfg.BetaGeo.A, "BG/NBD a")
	flag.Float64Var(&cfg.BetaGeo.B, "b", cfg.BetaGeo.B, "BG/NBD b")
	flag.Float64Var(&cfg.GammaGamma.P, "p", cfg.GammaGamma.P, "Gamma-Gamma p")
	flag.Float64Var(&cfg.GammaGamma.Q, "q", cfg.GammaGamma.Q, "Gamma-Gamma q")
	flag.Float64Var(&cfg.GammaGamma.V, "v", cfg.GammaGamma.V, "Gamma-Gamma v")
	flag.Parse()

	analysisDate, err := customer.ParseDate(*date)
	if err != nil {
		fmt.Printf("Invalid analysis date: %v\n", err)
		os.Exit(1)
	}
	cfg.Customers = *count
	cfg.Seed = *seed
	cfg.AnalysisDate = analysisDate
	cfg.OnlineShare = *online

	if err := cfg.BetaGeo.Validate(); err != nil {
		fmt.Printf("Invalid BG/NBD parameters: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.GammaGamma.Validate(); err != nil {
		fmt.Printf("Invalid Gamma-Gamma parameters: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating %d customers (seed %d, analysis date %s) to %s...\n", cfg.Customers, cfg.Seed, *date, *out)

	records := simulation.Generate(cfg)
	if err := report.Save(*out, func(w io.Writer) error { return customer.WriteCSV(w, records) }); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
