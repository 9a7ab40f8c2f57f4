package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cltv-rfm/internal/features"
	"cltv-rfm/internal/model"
	"cltv-rfm/internal/pipeline"
	"cltv-rfm/internal/segment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var analysisDate = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

func sampleCLTV() *pipeline.CLTVResult {
	return &pipeline.CLTVResult{
		AnalysisDate:       analysisDate,
		HorizonMonths:      6,
		DiscountRate:       0.01,
		SalesHorizonsWeeks: []int{12, 24},
		BetaGeo:            model.BetaGeoParams{R: 0.25, Alpha: 4, A: 0.8, B: 2.5},
		GammaGamma:         model.GammaGammaParams{P: 6, Q: 4, V: 15},
		Population:         features.CLTVSummary{Customers: 3, Retained: 2, Excluded: 1},
		Channels:           []features.ChannelStats{{Channel: "Mobile", Customers: 3, TotalPurchases: 9, TotalSpend: 900}},
		Grades: []segment.GradeSummary{
			{Grade: segment.GradeA, Customers: 1, CLTV: 264.957, CLTVTotal: 264.957},
			{Grade: segment.GradeD, Customers: 1, CLTV: 140.596, CLTVTotal: 140.596},
		},
		Customers: []pipeline.CLTVCustomer{
			{
				CLTVRow:          features.CLTVRow{ID: "c1", Recency: 10, T: 20, Frequency: 3, MonetaryAvg: 50},
				ExpectedSales:    []float64{0.5, 0.9},
				ProbabilityAlive: 0.8,
				ExpectedValue:    52.5,
				CLTV:             140.596,
				Grade:            segment.GradeD,
			},
			{
				CLTVRow:          features.CLTVRow{ID: "c2", Recency: 19, T: 20, Frequency: 6, MonetaryAvg: 50},
				ExpectedSales:    []float64{1.1, 2.0},
				ProbabilityAlive: 0.95,
				ExpectedValue:    51.25,
				CLTV:             264.957,
				Grade:            segment.GradeA,
			},
		},
	}
}

func sampleRFM() *pipeline.RFMResult {
	return &pipeline.RFMResult{
		AnalysisDate: analysisDate,
		Bins:         5,
		Segments:     []segment.SegmentSummary{{Segment: segment.Champions, Customers: 1, Recency: 3, Frequency: 12, Monetary: 1500}},
		Customers: []pipeline.RFMCustomer{{
			RFMRow:         features.RFMRow{ID: "c2", Recency: 3, Frequency: 12, Monetary: 1500.5},
			RecencyScore:   5,
			FrequencyScore: 5,
			MonetaryScore:  4,
			RFScore:        "55",
			Segment:        segment.Champions,
		}},
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCLTVCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCLTVCSV(&buf, sampleCLTV()))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"master_id", "recency_cltv_weekly", "T_weekly", "frequency", "monetary_cltv_avg",
		"exp_sales_12_week", "exp_sales_24_week",
		"probability_alive", "exp_average_value", "cltv", "cltv_segment",
	}, rows[0])
	assert.Equal(t, []string{"c2", "19", "20", "6", "50", "1.1", "2", "0.95", "51.25", "264.957", "A"}, rows[2])
}

func TestWriteSegmentsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSegmentsCSV(&buf, sampleRFM()))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, "segment", rows[0][8])
	assert.Equal(t, []string{"c2", "3", "12", "1500.5", "5", "5", "4", "55", "champions"}, rows[1])
}

func TestWriteIDsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIDsCSV(&buf, []string{"a02", "a08"}))
	assert.Equal(t, "master_id\na02\na08\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteIDsCSV(&buf, nil))
	assert.Equal(t, "master_id\n", buf.String())
}

func TestTimestampedFilename(t *testing.T) {
	at := time.Date(2021, 6, 1, 13, 4, 5, 0, time.UTC)
	got := TimestampedFilename("out", "cltv", ".csv", at)
	assert.Equal(t, filepath.Join("out", "cltv_20210601_130405.csv"), got)
}

func TestExportJSON_CreatesFolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "result.json")
	require.NoError(t, ExportJSON(path, map[string]int{"customers": 2}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"customers\": 2\n}\n", string(data))
}

func TestManifest_Write(t *testing.T) {
	dir := t.TempDir()
	m := NewManifest("cltv", "customers.csv", analysisDate)
	m.SetParameter("horizon_months", 6)
	m.SetCount("customers", 20)
	m.AddFile("cltv.csv")

	path, err := m.Write(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "manifest_"+m.RunID+".json"), path)

	_, err = uuid.Parse(m.RunID)
	assert.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Manifest
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2021-06-01", decoded.AnalysisDate)
	assert.Equal(t, 20, decoded.Counts["customers"])
	assert.Equal(t, []string{"cltv.csv"}, decoded.Files)
	assert.False(t, decoded.FinishedAt.Before(decoded.StartedAt))
}

func TestWriteSummaryMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryMarkdown(&buf, sampleCLTV(), sampleRFM()))
	out := buf.String()

	for _, want := range []string{
		"# Customer Value Summary",
		"## CLTV",
		"excluded single purchase: 1",
		"BG/NBD: r=0.2500 alpha=4.0000 a=0.8000 b=2.5000",
		"| A | 1 |",
		"## RFM Segments",
		"| champions | 1 |",
		"pie title Segment Share",
		"## Order Channels",
		`x-axis ["Mobile"]`,
	} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 4, strings.Count(out, "```mermaid"))
}

func TestWriteSummaryMarkdown_RFMOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryMarkdown(&buf, nil, sampleRFM()))
	assert.NotContains(t, buf.String(), "## CLTV")
	assert.Contains(t, buf.String(), "## RFM Segments")
}
