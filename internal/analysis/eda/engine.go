package eda

import (
	"context"
	"time"

	"insightdash/adapters/rng"
	"insightdash/domain/analysis"
	"insightdash/domain/core"
	"insightdash/domain/table"
	"insightdash/internal"
	"insightdash/internal/errors"
	"insightdash/ports"
)

const (
	DefaultMaxRows    = 25000
	DefaultMaxColumns = 256

	sampleRows  = 10
	kmeansStage = "kmeans_init"
)

// Options configures an Engine. Zero values fall back to the defaults.
type Options struct {
	MaxRows    int
	MaxColumns int
	RNG        ports.RNGPort
	Logger     *internal.Logger
}

// Engine runs the cleaning and modeling pipeline over one table per call.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	maxRows    int
	maxColumns int
	rng        ports.RNGPort
	cleaner    *Cleaner
	logger     *internal.Logger
}

// NewEngine creates an engine
func NewEngine(opts Options) *Engine {
	e := &Engine{
		maxRows:    opts.MaxRows,
		maxColumns: opts.MaxColumns,
		rng:        opts.RNG,
		cleaner:    NewCleaner(),
		logger:     opts.Logger,
	}
	if e.maxRows <= 0 {
		e.maxRows = DefaultMaxRows
	}
	if e.maxColumns <= 0 {
		e.maxColumns = DefaultMaxColumns
	}
	if e.rng == nil {
		e.rng = rng.EntropyAdapter{}
	}
	if e.logger == nil {
		e.logger = internal.DefaultLogger
	}
	e.logger = e.logger.Named("eda")
	return e
}

// Analyze cleans t and computes the full summary. Only invalid input,
// oversized input and cancellation fail; degenerate or skipped analyses
// are reported inside the summary.
func (e *Engine) Analyze(ctx context.Context, datasetID core.DatasetID, t table.Table) (*analysis.Summary, error) {
	if t.Len() > e.maxRows {
		return nil, errors.ResourceLimitExceeded("row", t.Len(), e.maxRows)
	}
	if len(t.Columns) > e.maxColumns {
		return nil, errors.ResourceLimitExceeded("column", len(t.Columns), e.maxColumns)
	}

	start := time.Now()
	runID := core.NewRunID()

	cleaned, quality, err := e.cleaner.Clean(t)
	if err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	cls := Classify(cleaned)

	descStats := make(map[string]analysis.DescriptiveStats, len(cls.NumericColumns))
	for _, col := range cls.NumericColumns {
		if s, ok := ComputeDescriptiveStats(numericValues(cleaned, col)); ok {
			descStats[col] = s
		}
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var skipped []analysis.SkippedAnalysis

	clustering, err := ClusterKMeans(ctx, cleaned, KMeansConfig{
		NumericColumns: cls.NumericColumns,
		Stats:          descStats,
		RNG:            e.rng.Stream(runID.String(), kmeansStage),
	})
	if err != nil {
		return nil, err
	}
	if !clustering.Ran() {
		skipped = append(skipped, analysis.SkippedAnalysis{Analysis: analysis.AnalysisClustering, Reason: clustering.SkipReason})
	}

	linear, linearSkipped := LinearRegressions(cleaned, cls.NumericColumns)
	skipped = append(skipped, linearSkipped...)

	logistic := []analysis.LogisticRegressionResult{}
	fit, reason, err := LogisticRegression(ctx, cleaned, cls)
	if err != nil {
		return nil, err
	}
	if fit != nil {
		logistic = append(logistic, *fit)
	} else {
		skipped = append(skipped, analysis.SkippedAnalysis{Analysis: analysis.AnalysisLogisticRegression, Reason: reason})
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	visualizations := BuildVisualizations(VisualizationInput{
		Table:            cleaned,
		Classification:   cls,
		Stats:            descStats,
		LinearRegression: linear,
		Labels:           clustering.Labels,
	})

	summary := &analysis.Summary{
		RunID:              runID,
		DatasetID:          datasetID,
		DataQuality:        quality,
		TotalRows:          cleaned.Len(),
		Columns:            cls.Columns,
		NumericColumns:     cls.NumericColumns,
		CategoricalColumns: cls.CategoricalColumns,
		DescriptiveStats:   descStats,
		Clustering:         clustering,
		LinearRegression:   linear,
		LogisticRegression: logistic,
		Visualizations:     visualizations,
		Skipped:            skipped,
		SampleData:         sampleTable(cleaned, clustering.Labels),
	}
	if summary.Skipped == nil {
		summary.Skipped = []analysis.SkippedAnalysis{}
	}

	e.logger.Info("run %s: %d rows in, %d rows analyzed, %d numeric columns, %d skipped analyses in %s",
		runID, quality.OriginalRows, quality.FinalRows, len(cls.NumericColumns), len(summary.Skipped), time.Since(start))
	return summary, nil
}

// sampleTable copies the first rows of t, adding the cluster label to
// labeled rows. Rows of t are never modified.
func sampleTable(t table.Table, labels map[int]int) table.Table {
	n := min(t.Len(), sampleRows)
	columns := append([]string(nil), t.Columns...)
	if len(labels) > 0 && !contains(columns, clusterColumn) {
		columns = append(columns, clusterColumn)
	}

	rows := make([]table.Row, n)
	for i := 0; i < n; i++ {
		row := t.Rows[i].Clone()
		if label, ok := labels[i]; ok {
			row[clusterColumn] = table.NewNumericValue(float64(label))
		}
		rows[i] = row
	}
	return table.Table{Columns: columns, Rows: rows}
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Canceled(err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
