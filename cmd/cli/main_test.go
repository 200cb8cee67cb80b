package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"insightdash/adapters/excel"
	"insightdash/adapters/rng"
	"insightdash/app"
	"insightdash/internal"
	"insightdash/internal/analysis/eda"
	"insightdash/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() *app.AnalysisService {
	logger := internal.NewLoggerTo(&bytes.Buffer{}, internal.LogLevelError)
	engine := eda.NewEngine(eda.Options{RNG: rng.NewSeededAdapter(1), Logger: logger})
	return app.NewAnalysisService(engine, nil, metrics.New(), logger)
}

func writeCSV(t *testing.T, dir, name string, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("a,b\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,%d\n", i, i*i)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestRunAnalyzeFiles_KeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeCSV(t, dir, "first.csv", 12),
		writeCSV(t, dir, "second.csv", 5),
		writeCSV(t, dir, "third.csv", 8),
	}

	var out bytes.Buffer
	err := runAnalyzeFiles(context.Background(), testService(), excel.DefaultReaderConfig(), files, "json", &out)
	require.NoError(t, err)

	dec := json.NewDecoder(&out)
	var ids []string
	var rows []int
	for dec.More() {
		var r struct {
			Summary struct {
				DatasetID string `json:"datasetId"`
				TotalRows int    `json:"totalRows"`
			} `json:"summary"`
		}
		require.NoError(t, dec.Decode(&r))
		ids = append(ids, r.Summary.DatasetID)
		rows = append(rows, r.Summary.TotalRows)
	}
	assert.Equal(t, []string{"first", "second", "third"}, ids)
	assert.Equal(t, []int{12, 5, 8}, rows)
}

func TestRunAnalyzeFiles_Markdown(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "sales.csv", 10)

	var out bytes.Buffer
	require.NoError(t, runAnalyzeFiles(context.Background(), testService(), excel.DefaultReaderConfig(), []string{path}, "markdown", &out))
	assert.True(t, strings.HasPrefix(out.String(), "# Dataset analysis: sales"))
}

func TestRunAnalyzeFiles_ReportsFailingFile(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "good.csv", 10)
	missing := filepath.Join(dir, "missing.csv")

	var out bytes.Buffer
	err := runAnalyzeFiles(context.Background(), testService(), excel.DefaultReaderConfig(), []string{good, missing}, "json", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.csv")
	assert.Empty(t, out.String())
}

func TestCheckFormat(t *testing.T) {
	for _, f := range []string{"json", "markdown", "html"} {
		assert.NoError(t, checkFormat(f))
	}
	assert.Error(t, checkFormat("pdf"))
}

func TestDatasetName(t *testing.T) {
	assert.Equal(t, "orders", datasetName("/tmp/data/orders.xlsx"))
	assert.Equal(t, "report.v2", datasetName("report.v2.csv"))
}
