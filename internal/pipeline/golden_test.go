package pipeline

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"cltv-rfm/internal/customer"
	"cltv-rfm/internal/model"
	"cltv-rfm/internal/segment"
)

var update = flag.Bool("update", false, "update golden files")

type PipelineGoldenResult struct {
	CLTV    *CLTVResult         `json:"cltv"`
	RFM     *RFMResult          `json:"rfm"`
	Targets map[string][]string `json:"targets"`
}

func goldenOptions() Options {
	opts := DefaultOptions()
	opts.Progress = io.Discard
	opts.BetaGeoParams = &model.BetaGeoParams{R: 0.25, Alpha: 4, A: 0.8, B: 2.5}
	opts.GammaGammaParams = &model.GammaGammaParams{P: 6, Q: 4, V: 15}
	return opts
}

func TestPipeline_Golden(t *testing.T) {
	// 1. Load the reference customer base
	testingDir := filepath.Join("..", "testdata", "golden")
	records, err := customer.LoadCSV(filepath.Join(testingDir, "customers.csv"))
	if err != nil {
		t.Fatalf("Failed to load golden customers: %v", err)
	}

	// 2. Run both analyses with fixed model parameters
	opts := goldenOptions()
	cltv, err := RunCLTV(records, opts)
	if err != nil {
		t.Fatalf("RunCLTV failed: %v", err)
	}
	rfm, err := RunRFM(records, opts)
	if err != nil {
		t.Fatalf("RunRFM failed: %v", err)
	}

	result := PipelineGoldenResult{
		CLTV: cltv,
		RFM:  rfm,
		Targets: map[string][]string{
			segment.NewBrandRule.Name: rfm.Targets(segment.NewBrandRule),
			segment.DiscountRule.Name: rfm.Targets(segment.DiscountRule),
		},
	}

	// 3. Serialize & Golden Compare
	actualJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal golden result: %v", err)
	}

	goldenPath := filepath.Join(testingDir, "pipeline_golden.json")

	if *update {
		if err := os.WriteFile(goldenPath, append(actualJSON, '\n'), 0644); err != nil {
			t.Fatalf("Failed to write golden file: %v", err)
		}
		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	expectedJSON, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("Failed to read golden file (run with -update to generate): %v", err)
	}

	var want, got any
	if err := json.Unmarshal(expectedJSON, &want); err != nil {
		t.Fatalf("Failed to parse golden file: %v", err)
	}
	if err := json.Unmarshal(actualJSON, &got); err != nil {
		t.Fatalf("Failed to parse actual result: %v", err)
	}
	for _, diff := range compareJSON("$", want, got) {
		t.Error(diff)
	}
}

// compareJSON walks two decoded JSON documents and reports differences.
// Numbers match within a relative tolerance.
func compareJSON(path string, want, got any) []string {
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected object, got %T", path, got)}
		}
		keys := make([]string, 0, len(w))
		for k := range w {
			keys = append(keys, k)
		}
		for k := range g {
			if _, ok := w[k]; !ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		var diffs []string
		for _, k := range keys {
			diffs = append(diffs, compareJSON(path+"."+k, w[k], g[k])...)
		}
		return diffs
	case []any:
		g, ok := got.([]any)
		if !ok || len(g) != len(w) {
			return []string{fmt.Sprintf("%s: expected array of %d, got %v", path, len(w), got)}
		}
		var diffs []string
		for i := range w {
			diffs = append(diffs, compareJSON(fmt.Sprintf("%s[%d]", path, i), w[i], g[i])...)
		}
		return diffs
	case float64:
		g, ok := got.(float64)
		if !ok || math.Abs(w-g) > 1e-9*math.Max(1, math.Abs(w)) {
			return []string{fmt.Sprintf("%s: expected %v, got %v", path, w, got)}
		}
		return nil
	default:
		if want != got {
			return []string{fmt.Sprintf("%s: expected %v, got %v", path, want, got)}
		}
		return nil
	}
}
