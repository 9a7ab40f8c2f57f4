package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"cltv-rfm/internal/customer"
	"cltv-rfm/internal/report"

	"github.com/rs/zerolog/log"
)

// loadRecords reads the customer base from the configured CSV or database.
func loadRecords(ctx context.Context) ([]customer.Record, string, error) {
	switch {
	case cfg.CSVPath != "" && cfg.DSN != "":
		return nil, "", errors.New("choose either --csv or --dsn, not both")
	case cfg.CSVPath != "":
		records, err := customer.LoadCSV(cfg.CSVPath)
		if err != nil {
			return nil, "", err
		}
		return records, cfg.CSVPath, nil
	case cfg.DSN != "":
		db, driver, err := customer.OpenDB(cfg.DSN)
		if err != nil {
			return nil, "", err
		}
		defer db.Close()

		records, err := customer.LoadDB(ctx, db, cfg.Table)
		if err != nil {
			return nil, "", err
		}
		return records, driver + ":" + cfg.Table, nil
	default:
		return nil, "", errors.New("no customer source: set --csv or --dsn (or CUSTOMERS_CSV / CUSTOMERS_DSN)")
	}
}

// exporter writes the files of one run and records them in its manifest.
type exporter struct {
	dir      string
	at       time.Time
	manifest *report.Manifest
}

func newExporter(command, source string) *exporter {
	return &exporter{
		dir:      cfg.ExportDir,
		at:       time.Now(),
		manifest: report.NewManifest(command, source, cfg.AnalysisDate),
	}
}

func (e *exporter) save(name, ext string, write func(io.Writer) error) error {
	if noExport {
		return nil
	}
	path := report.TimestampedFilename(e.dir, name, ext, e.at)
	if err := report.Save(path, write); err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}
	e.manifest.AddFile(filepath.Base(path))
	return nil
}

func (e *exporter) json(name string, data any) error {
	if noExport {
		return nil
	}
	path := report.TimestampedFilename(e.dir, name, ".json", e.at)
	if err := report.ExportJSON(path, data); err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}
	e.manifest.AddFile(filepath.Base(path))
	return nil
}

func (e *exporter) finish() error {
	if noExport {
		return nil
	}
	path, err := e.manifest.Write(e.dir)
	if err != nil {
		return err
	}
	log.Info().Str("runId", e.manifest.RunID).Str("manifest", path).Msg("Run complete")
	return nil
}
