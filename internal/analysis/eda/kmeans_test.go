package eda

import (
	"context"
	"math/rand"
	"testing"

	"insightdash/domain/analysis"
	"insightdash/domain/table"
	"insightdash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeBlobs builds n rows in three well separated groups over columns x and y
func threeBlobs(n int) table.Table {
	rows := make([]table.Row, n)
	for i := range rows {
		group := float64(i % 3)
		rows[i] = table.Row{
			"x": table.NewNumericValue(group*100 + float64(i%5)),
			"y": table.NewNumericValue(group*-50 + float64(i%7)),
		}
	}
	return table.New([]string{"x", "y"}, rows)
}

func statsFor(t *testing.T, tbl table.Table, cols ...string) map[string]analysis.DescriptiveStats {
	t.Helper()
	out := make(map[string]analysis.DescriptiveStats)
	for _, col := range cols {
		s, ok := ComputeDescriptiveStats(numericValues(tbl, col))
		require.True(t, ok)
		out[col] = s
	}
	return out
}

func TestClusterKMeans_ThirtyRows(t *testing.T) {
	tbl := threeBlobs(30)

	result, err := ClusterKMeans(context.Background(), tbl, KMeansConfig{
		NumericColumns: []string{"x", "y"},
		Stats:          statsFor(t, tbl, "x", "y"),
		RNG:            rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	require.True(t, result.Ran())

	assert.Equal(t, "kmeans", result.Method)
	assert.Equal(t, 3, result.K)
	assert.Equal(t, []string{"x", "y"}, result.Features)
	assert.Len(t, result.Clusters, 3)
	assert.Len(t, result.Centroids, 3)
	assert.Equal(t, 30, result.RowsConsidered)

	total := 0
	for label := 0; label < result.K; label++ {
		count, ok := result.Clusters[label]
		require.True(t, ok, "missing key for cluster %d", label)
		total += count
	}
	assert.Equal(t, result.RowsConsidered, total)

	require.Len(t, result.Labels, 30)
	for row, label := range result.Labels {
		assert.GreaterOrEqual(t, label, 0, "row %d", row)
		assert.Less(t, label, result.K, "row %d", row)
	}
	assert.LessOrEqual(t, result.Iterations, maxKMeansIterations)
}

func TestClusterKMeans_RowsMissingFeatures(t *testing.T) {
	tbl := threeBlobs(30)
	tbl.Rows[0]["y"] = table.NewMissingValue()
	tbl.Rows[1]["x"] = table.NewMissingValue()

	result, err := ClusterKMeans(context.Background(), tbl, KMeansConfig{
		NumericColumns: []string{"x", "y"},
		Stats:          statsFor(t, tbl, "x", "y"),
		RNG:            rand.New(rand.NewSource(3)),
	})
	require.NoError(t, err)
	require.True(t, result.Ran())

	assert.Equal(t, 28, result.RowsConsidered)
	assert.NotContains(t, result.Labels, 0)
	assert.NotContains(t, result.Labels, 1)

	total := 0
	for _, count := range result.Clusters {
		total += count
	}
	assert.Equal(t, 28, total)
}

func TestClusterKMeans_Skips(t *testing.T) {
	oneColumn := table.New([]string{"x"}, threeBlobs(30).Rows)

	tests := []struct {
		name    string
		tbl     table.Table
		numeric []string
	}{
		{"one numeric column", oneColumn, []string{"x"}},
		{"too few rows for two clusters", threeBlobs(19), []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ClusterKMeans(context.Background(), tt.tbl, KMeansConfig{
				NumericColumns: tt.numeric,
				Stats:          statsFor(t, tt.tbl, tt.numeric...),
				RNG:            rand.New(rand.NewSource(1)),
			})
			require.NoError(t, err)
			assert.False(t, result.Ran())
			assert.NotEmpty(t, result.SkipReason)
			assert.Empty(t, result.Clusters)
		})
	}
}

func TestClusterKMeans_TooFewCompleteRows(t *testing.T) {
	tbl := threeBlobs(20)
	for i := 1; i < tbl.Len(); i++ {
		tbl.Rows[i]["y"] = table.NewMissingValue()
	}

	result, err := ClusterKMeans(context.Background(), tbl, KMeansConfig{
		NumericColumns: []string{"x", "y"},
		Stats:          statsFor(t, tbl, "x", "y"),
		RNG:            rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	assert.False(t, result.Ran())
	assert.Contains(t, result.SkipReason, "only 1 rows")
}

func TestClusterKMeans_SameSeedSameClusters(t *testing.T) {
	tbl := threeBlobs(60)
	stats := statsFor(t, tbl, "x", "y")

	run := func() analysis.ClusteringResult {
		result, err := ClusterKMeans(context.Background(), tbl, KMeansConfig{
			NumericColumns: []string{"x", "y"},
			Stats:          stats,
			RNG:            rand.New(rand.NewSource(99)),
		})
		require.NoError(t, err)
		return result
	}

	first, second := run(), run()
	assert.Equal(t, first.Labels, second.Labels)
	assert.Equal(t, first.Centroids, second.Centroids)
}

func TestClusterKMeans_Canceled(t *testing.T) {
	tbl := threeBlobs(30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ClusterKMeans(ctx, tbl, KMeansConfig{
		NumericColumns: []string{"x", "y"},
		Stats:          statsFor(t, tbl, "x", "y"),
		RNG:            rand.New(rand.NewSource(1)),
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeCanceled, errors.GetCode(err))
}

func TestUpdateCentroids_EmptyClusterKeepsPosition(t *testing.T) {
	centroids := [][]float64{{0, 0}, {5, 5}}
	points := [][]float64{{1, 1}, {3, 3}}

	updateCentroids(centroids, points, []int{0, 0})

	assert.Equal(t, []float64{2, 2}, centroids[0])
	assert.Equal(t, []float64{5, 5}, centroids[1])
}
