package report

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Manifest records what a run did and which files it produced.
type Manifest struct {
	RunID        string         `json:"run_id"`
	Command      string         `json:"command"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	AnalysisDate string         `json:"analysis_date"`
	Source       string         `json:"source"`
	Parameters   map[string]any `json:"parameters"`
	Counts       map[string]int `json:"counts"`
	Files        []string       `json:"files"`
}

// NewManifest starts a manifest with a fresh run id.
func NewManifest(command, source string, analysisDate time.Time) *Manifest {
	return &Manifest{
		RunID:        uuid.NewString(),
		Command:      command,
		StartedAt:    time.Now().UTC(),
		AnalysisDate: analysisDate.Format(time.DateOnly),
		Source:       source,
		Parameters:   make(map[string]any),
		Counts:       make(map[string]int),
	}
}

func (m *Manifest) SetParameter(key string, value any) { m.Parameters[key] = value }
func (m *Manifest) SetCount(key string, n int) { m.Counts[key] = n }
func (m *Manifest) AddFile(path string) { m.Files = append(m.Files, path) }

// Write stamps the finish time and saves the manifest into dir, named after
// the run id.
func (m *Manifest) Write(dir string) (string, error) {
	m.FinishedAt = time.Now().UTC()
	path := filepath.Join(dir, "manifest_"+m.RunID+".json")
	return path, ExportJSON(path, m)
}
