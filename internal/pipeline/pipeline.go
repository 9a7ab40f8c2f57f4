package pipeline

import (
	"io"
	"os"
	"time"

	"cltv-rfm/internal/model"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Options configures a pipeline run.
type Options struct {
	AnalysisDate time.Time
	CapOutliers  bool

	BetaGeo    model.FitOptions
	GammaGamma model.FitOptions

	// Pre-fitted parameters skip the corresponding fit when set.
	BetaGeoParams    *model.BetaGeoParams
	GammaGammaParams *model.GammaGammaParams

	HorizonMonths      int
	DiscountRate       float64
	SalesHorizonsWeeks []int
	ScoreBins          int

	// Progress receives the stage progress bar; nil selects stderr when it is
	// a terminal and discards otherwise.
	Progress io.Writer
}

// DefaultOptions returns the settings of the reference analysis.
func DefaultOptions() Options {
	return Options{
		AnalysisDate:       time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		CapOutliers:        true,
		BetaGeo:            model.FitOptions{Penalizer: 0.001, MinCustomers: model.DefaultMinCustomers, MaxIterations: model.DefaultMaxIterations},
		GammaGamma:         model.FitOptions{Penalizer: 0.01, MinCustomers: model.DefaultMinCustomers, MaxIterations: model.DefaultMaxIterations},
		HorizonMonths:      6,
		DiscountRate:       0.01,
		SalesHorizonsWeeks: []int{12, 24},
		ScoreBins:          5,
	}
}

func (o Options) progressWriter() io.Writer {
	if o.Progress != nil {
		return o.Progress
	}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return os.Stderr
	}
	return io.Discard
}

// stages reports progress through the named pipeline steps.
type stages struct {
	bar *progressbar.ProgressBar
}

func newStages(w io.Writer, title string, steps int) *stages {
	return &stages{bar: progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(title),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)}
}

func (s *stages) next(description string) {
	s.bar.Describe(description)
	_ = s.bar.Add(1)
}

func (s *stages) done() {
	_ = s.bar.Finish()
}
