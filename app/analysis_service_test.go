package app

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"insightdash/adapters/rng"
	"insightdash/domain/analysis"
	"insightdash/domain/table"
	"insightdash/internal"
	"insightdash/internal/analysis/eda"
	"insightdash/internal/errors"
	"insightdash/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockInsightGenerator struct {
	mock.Mock
}

func (m *mockInsightGenerator) GenerateInsights(ctx context.Context, summary *analysis.Summary) ([]analysis.Insight, error) {
	args := m.Called(ctx, summary)
	insights, _ := args.Get(0).([]analysis.Insight)
	return insights, args.Error(1)
}

func (m *mockInsightGenerator) Name() string { return "mock" }

type staticSource struct {
	tbl table.Table
	err error
}

func (s staticSource) LoadTable(ctx context.Context) (table.Table, error) { return s.tbl, s.err }

func quietLogger() *internal.Logger {
	return internal.NewLoggerTo(&bytes.Buffer{}, internal.LogLevelError)
}

func newService(gen *mockInsightGenerator) *AnalysisService {
	engine := eda.NewEngine(eda.Options{RNG: rng.NewSeededAdapter(7), Logger: quietLogger()})
	if gen == nil {
		return NewAnalysisService(engine, nil, metrics.New(), quietLogger())
	}
	return NewAnalysisService(engine, gen, metrics.New(), quietLogger())
}

func smallTable() table.Table {
	rows := make([]table.Row, 20)
	for i := range rows {
		rows[i] = table.Row{
			"x": table.NewNumericValue(float64(i)),
			"y": table.NewNumericValue(float64(3*i + 1)),
		}
	}
	return table.New([]string{"x", "y"}, rows)
}

func TestAnalysisService_UsesGenerator(t *testing.T) {
	gen := new(mockInsightGenerator)
	gen.On("GenerateInsights", mock.Anything, mock.AnythingOfType("*analysis.Summary")).
		Return([]analysis.Insight{{Type: "trend", Title: "t", Description: "d", ConfidenceScore: 0.5}}, nil)

	report, err := newService(gen).Analyze(context.Background(), "ds", smallTable())
	require.NoError(t, err)

	assert.Equal(t, "mock", report.InsightSource)
	require.Len(t, report.Insights, 1)
	assert.Equal(t, "trend", report.Insights[0].Type)
	gen.AssertExpectations(t)
}

func TestAnalysisService_FallsBack(t *testing.T) {
	tests := []struct {
		name     string
		insights []analysis.Insight
		err      error
	}{
		{"generator error", nil, fmt.Errorf("timeout")},
		{"no insights", []analysis.Insight{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(mockInsightGenerator)
			gen.On("GenerateInsights", mock.Anything, mock.Anything).Return(tt.insights, tt.err)

			report, err := newService(gen).Analyze(context.Background(), "", smallTable())
			require.NoError(t, err)
			assert.Equal(t, "heuristic", report.InsightSource)
			require.NotEmpty(t, report.Insights)
			assert.Equal(t, analysis.InsightDataQuality, report.Insights[0].Type)
		})
	}
}

func TestAnalysisService_NoGenerator(t *testing.T) {
	report, err := newService(nil).Analyze(context.Background(), "", smallTable())
	require.NoError(t, err)
	assert.Equal(t, "heuristic", report.InsightSource)

	var types []string
	for _, in := range report.Insights {
		types = append(types, in.Type)
	}
	assert.Contains(t, types, analysis.InsightDataQuality)
	assert.Contains(t, types, analysis.InsightCorrelation)
	assert.True(t, report.Summary.Clustering.Ran())
	assert.Contains(t, types, analysis.InsightClustering)
}

func TestAnalysisService_PropagatesInputErrors(t *testing.T) {
	svc := newService(nil)

	_, err := svc.Analyze(context.Background(), "", table.Table{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.AnalyzeSource(context.Background(), "", staticSource{err: errors.DatabaseError("boom", nil)})
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}

func TestAnalysisService_AnalyzeSource(t *testing.T) {
	report, err := newService(nil).AnalyzeSource(context.Background(), "from-source", staticSource{tbl: smallTable()})
	require.NoError(t, err)
	assert.Equal(t, 20, report.Summary.TotalRows)
	assert.Equal(t, "from-source", report.Summary.DatasetID.String())
}
