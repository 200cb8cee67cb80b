package heuristic

import (
	"context"
	"testing"

	"insightdash/domain/analysis"
	"insightdash/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.InsightGenerator = (*Generator)(nil)

func insightTypes(insights []analysis.Insight) []string {
	out := make([]string, len(insights))
	for i, in := range insights {
		out[i] = in.Type
	}
	return out
}

func TestGenerateInsights_MinimalSummary(t *testing.T) {
	summary := &analysis.Summary{
		DataQuality: analysis.DataQualityReport{OriginalRows: 5, FinalRows: 5},
		Clustering:  analysis.ClusteringResult{SkipReason: "fewer than 2 numeric columns"},
	}

	insights, err := NewGenerator().GenerateInsights(context.Background(), summary)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, analysis.InsightDataQuality, insights[0].Type)
	assert.Equal(t, "Data quality overview", insights[0].Title)
	assert.Contains(t, insights[0].Description, "No missing values")
}

func TestGenerateInsights_FullSummary(t *testing.T) {
	summary := &analysis.Summary{
		Columns: []string{"units", "revenue", "channel"},
		DataQuality: analysis.DataQualityReport{
			OriginalRows: 32, DuplicatesRemoved: 2, FinalRows: 30,
			MissingValuesPerColumn: map[string]analysis.MissingValueStat{
				"revenue": {Count: 3, Percentage: 10},
				"units":   {Count: 1, Percentage: 3.3},
			},
		},
		DescriptiveStats: map[string]analysis.DescriptiveStats{
			"units":   {Count: 30, OutlierCount: 2},
			"revenue": {Count: 27},
		},
		Clustering: analysis.ClusteringResult{
			Method: "kmeans", K: 3, Features: []string{"units", "revenue"},
			Clusters: map[int]int{0: 10, 1: 12, 2: 5}, RowsConsidered: 27, Converged: true,
		},
		LinearRegression: []analysis.LinearRegressionResult{
			{XColumn: "units", YColumn: "revenue", Correlation: 0.93, RSquared: 0.86, PValue: 0.0001, N: 27, Equation: "y = 2.0000x + 3.0000"},
			{XColumn: "units", YColumn: "other", Correlation: 0.1, RSquared: 0.01, PValue: 0.6, N: 27},
			{XColumn: "a", YColumn: "b", Correlation: analysis.NaN(), RSquared: analysis.NaN(), PValue: analysis.NaN()},
		},
		LogisticRegression: []analysis.LogisticRegressionResult{
			{FeatureColumn: "units", TargetColumn: "channel", Accuracy: 0.95, N: 30, Interpretation: "odds rise"},
		},
	}

	insights, err := NewGenerator().GenerateInsights(context.Background(), summary)
	require.NoError(t, err)

	assert.Equal(t, []string{
		analysis.InsightDataQuality,
		analysis.InsightClustering,
		analysis.InsightCorrelation,
		analysis.InsightOutliers,
		analysis.InsightPrediction,
	}, insightTypes(insights))

	assert.Contains(t, insights[0].Description, "revenue is missing 10.0%")
	assert.Contains(t, insights[1].Description, "10, 12, 5")
	assert.InDelta(t, 0.93, insights[2].ConfidenceScore, 1e-9)
	assert.Contains(t, insights[2].Title, "positive")
	assert.Contains(t, insights[3].Description, "units (2 of 30)")
	assert.InDelta(t, 0.95, insights[4].ConfidenceScore, 1e-9)

	for _, in := range insights {
		assert.GreaterOrEqual(t, in.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, in.ConfidenceScore, 1.0)
	}
}

func TestGenerateInsights_NegativeCorrelation(t *testing.T) {
	summary := &analysis.Summary{
		LinearRegression: []analysis.LinearRegressionResult{
			{XColumn: "price", YColumn: "demand", Correlation: -0.8, RSquared: 0.64, PValue: analysis.NaN(), N: 3},
		},
	}
	insights, err := NewGenerator().GenerateInsights(context.Background(), summary)
	require.NoError(t, err)
	require.Len(t, insights, 2)
	assert.Contains(t, insights[1].Title, "negative")
	assert.NotContains(t, insights[1].Description, "p =")
}
