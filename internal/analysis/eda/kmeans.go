package eda

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"insightdash/domain/analysis"
	"insightdash/domain/table"
	"insightdash/internal/errors"

	"gonum.org/v1/gonum/floats"
)

const (
	// maxClusterFeatures bounds how many numeric columns feed k-means
	maxClusterFeatures  = 3
	maxClusters         = 3
	// rowsPerCluster is the number of cleaned rows required per cluster
	rowsPerCluster      = 10
	maxKMeansIterations = 100
)

// KMeansConfig holds the inputs for one clustering run
type KMeansConfig struct {
	NumericColumns []string
	Stats          map[string]analysis.DescriptiveStats
	RNG            *rand.Rand
}

// ClusterKMeans partitions rows on standardized numeric features.
// Precondition failures produce a result with only SkipReason set.
func ClusterKMeans(ctx context.Context, t table.Table, cfg KMeansConfig) (analysis.ClusteringResult, error) {
	if len(cfg.NumericColumns) < 2 {
		return skippedClustering("fewer than 2 numeric columns"), nil
	}
	k := min(maxClusters, t.Len()/rowsPerCluster)
	if k < 2 {
		return skippedClustering(fmt.Sprintf("%d rows is too few for at least 2 clusters", t.Len())), nil
	}

	features := cfg.NumericColumns[:min(maxClusterFeatures, len(cfg.NumericColumns))]
	points, rowIndex := standardizedPoints(t, features, cfg.Stats)
	if len(points) < k {
		return skippedClustering(fmt.Sprintf("only %d rows have every feature, need %d", len(points), k)), nil
	}

	centroids := make([][]float64, k)
	for i := range centroids {
		centroids[i] = append([]float64(nil), points[cfg.RNG.Intn(len(points))]...)
	}

	assignments := make([]int, len(points))
	for i := range assignments {
		assignments[i] = -1
	}

	diff := make([]float64, len(features))
	iterations, converged := 0, false
	for iterations < maxKMeansIterations {
		if err := ctx.Err(); err != nil {
			return analysis.ClusteringResult{}, errors.Canceled(err)
		}
		iterations++

		changed := false
		for i, p := range points {
			best, bestDist := 0, 0.0
			for c, centroid := range centroids {
				floats.SubTo(diff, p, centroid)
				d := floats.Dot(diff, diff)
				if c == 0 || d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			converged = true
			break
		}
		updateCentroids(centroids, points, assignments)
	}

	result := analysis.ClusteringResult{
		Method:         "kmeans",
		K:              k,
		Features:       append([]string(nil), features...),
		Clusters:       make(map[int]int, k),
		Centroids:      make([][]analysis.Float, k),
		RowsConsidered: len(points),
		Iterations:     iterations,
		Converged:      converged,
		Labels:         make(map[int]int, len(points)),
	}
	for c := 0; c < k; c++ {
		result.Clusters[c] = 0
		result.Centroids[c] = make([]analysis.Float, len(features))
		for j, v := range centroids[c] {
			result.Centroids[c][j] = analysis.Float(v)
		}
	}
	for i, label := range assignments {
		result.Clusters[label]++
		result.Labels[rowIndex[i]] = label
	}
	return result, nil
}

// updateCentroids moves each centroid to the mean of its members.
// A centroid with no members stays where it is.
func updateCentroids(centroids, points [][]float64, assignments []int) {
	dim := len(centroids[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, label := range assignments {
		floats.Add(sums[label], points[i])
		counts[label]++
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		copy(centroids[c], sums[c])
	}
}

// standardizedPoints returns z-scored feature vectors for rows that have
// every feature, plus the cleaned-row index of each point
func standardizedPoints(t table.Table, features []string, descStats map[string]analysis.DescriptiveStats) ([][]float64, []int) {
	var points [][]float64
	var rowIndex []int
	for i, row := range t.Rows {
		p := make([]float64, len(features))
		complete := true
		for j, col := range features {
			v := row.Get(col)
			if !v.IsNumeric() {
				complete = false
				break
			}
			s := descStats[col]
			p[j] = zScore(v.AsFloat64(), s.Mean, s.StdDev)
		}
		if complete {
			points = append(points, p)
			rowIndex = append(rowIndex, i)
		}
	}
	return points, rowIndex
}

// zScore standardizes v. Constant columns and statistics that overflowed
// map to 0 so points stay finite.
func zScore(v, mean, sd float64) float64 {
	if sd <= 0 || math.IsInf(sd, 0) || math.IsNaN(sd) {
		return 0
	}
	z := (v - mean) / sd
	if math.IsInf(z, 0) || math.IsNaN(z) {
		return 0
	}
	return z
}

func skippedClustering(reason string) analysis.ClusteringResult {
	return analysis.ClusteringResult{SkipReason: reason}
}
