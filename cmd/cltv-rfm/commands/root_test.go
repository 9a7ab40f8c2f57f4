package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRFMCommand_Exports(t *testing.T) {
	data := t.TempDir()
	t.Setenv("DATA_PATH", data)
	t.Setenv("LOGS_FOLDER", filepath.Join(data, "logs"))
	exports := filepath.Join(data, "out")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"rfm",
		"--csv", filepath.Join("..", "..", "..", "internal", "testdata", "golden", "customers.csv"),
		"--export-dir", exports,
	})
	if err := Execute(); err != nil {
		t.Fatalf("rfm command failed: %v", err)
	}

	if !strings.Contains(out.String(), "SEGMENT") {
		t.Errorf("Expected a segment table, got %q", out.String())
	}

	for _, pattern := range []string{"rfm_segments_*.csv", "rfm_summary_*.md", "manifest_*.json"} {
		matches, err := filepath.Glob(filepath.Join(exports, pattern))
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 1 {
			t.Errorf("Expected one %s export, got %v", pattern, matches)
		}
	}
	logged, err := os.ReadFile(filepath.Join(data, "logs", "cltv-rfm.log"))
	if err != nil {
		t.Fatalf("Expected the log file: %v", err)
	}
	if n := strings.Count(string(logged), "Loaded customer"); n != 1 {
		t.Errorf("Expected the load to be logged once, got %d", n)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	if err := Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "cltv-rfm dev") {
		t.Errorf("Unexpected version output %q", out.String())
	}
}
