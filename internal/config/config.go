package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cltv-rfm/internal/model"
	"cltv-rfm/internal/pipeline"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks a setting outside its allowed range.
var ErrInvalidConfig = errors.New("invalid configuration")

// AppConfig holds the complete application configuration.
type AppConfig struct {
	AnalysisDate        time.Time
	BetaGeoPenalizer    float64
	GammaGammaPenalizer float64
	HorizonMonths       int
	DiscountRate        float64
	ScoreBins           int
	MinRepeatCustomers  int
	MaxIterations       int
	SalesHorizonsWeeks  []int
	CapOutliers         bool

	// Data sources; the CLI flags usually fill these.
	CSVPath string
	DSN     string
	Table   string

	DataPath  string
	LogDir    string
	ExportDir string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	cfg := &AppConfig{
		DataPath:  dataPath,
		LogDir:    getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs")),
		ExportDir: getEnv("EXPORT_DIR", filepath.Join(dataPath, "exports")),
		CSVPath:   getEnv("CUSTOMERS_CSV", ""),
		DSN:       getEnv("CUSTOMERS_DSN", ""),
		Table:     getEnv("CUSTOMERS_TABLE", "flo_data_20k"),
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg.AnalysisDate, err = getEnvDate("ANALYSIS_DATE", "2021-06-01")
	collect(err)
	cfg.BetaGeoPenalizer, err = getEnvFloat("BGNBD_PENALIZER", 0.001)
	collect(err)
	cfg.GammaGammaPenalizer, err = getEnvFloat("GAMMA_GAMMA_PENALIZER", 0.01)
	collect(err)
	cfg.HorizonMonths, err = getEnvInt("CLTV_HORIZON_MONTHS", 6)
	collect(err)
	cfg.DiscountRate, err = getEnvFloat("DISCOUNT_RATE", 0.01)
	collect(err)
	cfg.ScoreBins, err = getEnvInt("SCORE_BINS", 5)
	collect(err)
	cfg.MinRepeatCustomers, err = getEnvInt("MIN_REPEAT_CUSTOMERS", model.DefaultMinCustomers)
	collect(err)
	cfg.MaxIterations, err = getEnvInt("MAX_ITERATIONS", model.DefaultMaxIterations)
	collect(err)
	cfg.SalesHorizonsWeeks, err = ParseWeeks(getEnv("SALES_HORIZONS_WEEKS", "12,24"))
	collect(err)
	cfg.CapOutliers = getEnvBool("CAP_OUTLIERS", true)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Profile is a YAML run profile. Unset keys keep the current value.
type Profile struct {
	AnalysisDate        *string  `yaml:"analysis_date"`
	BetaGeoPenalizer    *float64 `yaml:"bgnbd_penalizer"`
	GammaGammaPenalizer *float64 `yaml:"gamma_gamma_penalizer"`
	HorizonMonths       *int     `yaml:"cltv_horizon_months"`
	DiscountRate        *float64 `yaml:"discount_rate"`
	ScoreBins           *int     `yaml:"score_bins"`
	MinRepeatCustomers  *int     `yaml:"min_repeat_customers"`
	MaxIterations       *int     `yaml:"max_iterations"`
	SalesHorizonsWeeks  []int    `yaml:"sales_horizons_weeks"`
	CapOutliers         *bool    `yaml:"cap_outliers"`
	ExportDir           *string  `yaml:"export_dir"`
	CSVPath             *string  `yaml:"csv"`
	DSN                 *string  `yaml:"dsn"`
	Table               *string  `yaml:"table"`
}

// LoadProfile reads a YAML profile and applies it on top of the config.
func (c *AppConfig) LoadProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := c.Apply(p); err != nil {
		return fmt.Errorf("profile %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("Applied run profile")
	return nil
}

// Apply overrides the config with every key set in p.
func (c *AppConfig) Apply(p Profile) error {
	if p.AnalysisDate != nil {
		d, err := ParseDate(*p.AnalysisDate)
		if err != nil {
			return err
		}
		c.AnalysisDate = d
	}
	setIf(&c.BetaGeoPenalizer, p.BetaGeoPenalizer)
	setIf(&c.GammaGammaPenalizer, p.GammaGammaPenalizer)
	setIf(&c.HorizonMonths, p.HorizonMonths)
	setIf(&c.DiscountRate, p.DiscountRate)
	setIf(&c.ScoreBins, p.ScoreBins)
	setIf(&c.MinRepeatCustomers, p.MinRepeatCustomers)
	setIf(&c.MaxIterations, p.MaxIterations)
	setIf(&c.CapOutliers, p.CapOutliers)
	setIf(&c.ExportDir, p.ExportDir)
	setIf(&c.CSVPath, p.CSVPath)
	setIf(&c.DSN, p.DSN)
	setIf(&c.Table, p.Table)
	if len(p.SalesHorizonsWeeks) > 0 {
		c.SalesHorizonsWeeks = p.SalesHorizonsWeeks
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate enforces the allowed ranges.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.BetaGeoPenalizer < 0 {
		errs = append(errs, fmt.Errorf("%w: bgnbd_penalizer must be >= 0, got %v", ErrInvalidConfig, c.BetaGeoPenalizer))
	}
	if c.GammaGammaPenalizer < 0 {
		errs = append(errs, fmt.Errorf("%w: gamma_gamma_penalizer must be >= 0, got %v", ErrInvalidConfig, c.GammaGammaPenalizer))
	}
	if c.HorizonMonths <= 0 {
		errs = append(errs, fmt.Errorf("%w: cltv_horizon_months must be > 0, got %d", ErrInvalidConfig, c.HorizonMonths))
	}
	if c.DiscountRate < 0 || c.DiscountRate >= 1 {
		errs = append(errs, fmt.Errorf("%w: discount_rate must be in [0, 1), got %v", ErrInvalidConfig, c.DiscountRate))
	}
	if c.ScoreBins < 2 {
		errs = append(errs, fmt.Errorf("%w: score_bins must be >= 2, got %d", ErrInvalidConfig, c.ScoreBins))
	}
	if c.MinRepeatCustomers < 1 {
		errs = append(errs, fmt.Errorf("%w: min_repeat_customers must be >= 1, got %d", ErrInvalidConfig, c.MinRepeatCustomers))
	}
	if c.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("%w: max_iterations must be >= 1, got %d", ErrInvalidConfig, c.MaxIterations))
	}
	for _, w := range c.SalesHorizonsWeeks {
		if w <= 0 {
			errs = append(errs, fmt.Errorf("%w: sales horizons must be positive, got %d", ErrInvalidConfig, w))
		}
	}
	return errors.Join(errs...)
}

// PipelineOptions converts the config into pipeline settings.
func (c *AppConfig) PipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.AnalysisDate = c.AnalysisDate
	opts.CapOutliers = c.CapOutliers
	opts.BetaGeo = model.FitOptions{Penalizer: c.BetaGeoPenalizer, MinCustomers: c.MinRepeatCustomers, MaxIterations: c.MaxIterations}
	opts.GammaGamma = model.FitOptions{Penalizer: c.GammaGammaPenalizer, MinCustomers: c.MinRepeatCustomers, MaxIterations: c.MaxIterations}
	opts.HorizonMonths = c.HorizonMonths
	opts.DiscountRate = c.DiscountRate
	opts.SalesHorizonsWeeks = c.SalesHorizonsWeeks
	opts.ScoreBins = c.ScoreBins
	return opts
}

// ParseDate accepts 2006-01-02.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: analysis date %q is not YYYY-MM-DD", ErrInvalidConfig, s)
	}
	return d, nil
}

// ParseWeeks parses a comma separated list of week counts.
func ParseWeeks(s string) ([]int, error) {
	var weeks []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: sales horizon %q", ErrInvalidConfig, part)
		}
		weeks = append(weeks, w)
	}
	return weeks, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, value)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, value)
	}
	return f, nil
}

func getEnvDate(key, fallback string) (time.Time, error) {
	return ParseDate(getEnv(key, fallback))
}
