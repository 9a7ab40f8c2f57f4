package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// ExportJSON writes data as indented JSON, creating the parent directory.
func ExportJSON(filename string, data any) error {
	return Save(filename, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to write JSON: %w", err)
		}
		return nil
	})
}

// Save creates filename (and its folder) and hands it to write.
func Save(filename string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filename, err)
	}

	log.Info().Str("path", filename).Msg("Exported")
	return nil
}

// TimestampedFilename builds <baseDir>/<name>_<yyyymmdd_hhmmss><ext>.
func TimestampedFilename(baseDir, name, ext string, at time.Time) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s%s", name, at.Format("20060102_150405"), ext))
}
