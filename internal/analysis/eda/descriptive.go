package eda

import (
	"math"
	"sort"

	"insightdash/domain/analysis"

	"github.com/montanaflynn/stats"
)

// outlierFence is the IQR multiplier for the Tukey fences
const outlierFence = 1.5

// ComputeDescriptiveStats summarizes a set of numbers. It returns false for an empty input.
func ComputeDescriptiveStats(data []float64) (analysis.DescriptiveStats, bool) {
	n := len(data)
	if n == 0 {
		return analysis.DescriptiveStats{}, false
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	mean, _ := stats.Mean(sorted)
	median, _ := stats.Median(sorted)
	stdDev, _ := stats.StandardDeviationPopulation(sorted)

	q1 := sorted[int(math.Floor(float64(n)*0.25))]
	q3 := sorted[int(math.Floor(float64(n)*0.75))]
	iqr := q3 - q1

	lower, upper := q1-outlierFence*iqr, q3+outlierFence*iqr
	outliers := 0
	for _, v := range sorted {
		if v < lower || v > upper {
			outliers++
		}
	}

	return analysis.DescriptiveStats{
		Mean:         mean,
		Median:       median,
		StdDev:       stdDev,
		Min:          sorted[0],
		Max:          sorted[n-1],
		Count:        n,
		Q1:           q1,
		Q3:           q3,
		IQR:          iqr,
		OutlierCount: outliers,
		Skewness:     skewness(sorted, mean, stdDev),
		Kurtosis:     kurtosis(sorted, mean, stdDev),
	}, true
}

// skewness is the adjusted Fisher-Pearson coefficient. A constant column has
// zero skew; fewer than 3 values of a varying column, or a standard deviation
// that overflowed, is degenerate.
func skewness(data []float64, mean, stdDev float64) analysis.Float {
	if stdDev == 0 {
		return 0
	}
	n := float64(len(data))
	if len(data) < 3 || math.IsInf(stdDev, 0) || math.IsNaN(stdDev) {
		return analysis.NaN()
	}
	sum := 0.0
	for _, v := range data {
		z := (v - mean) / stdDev
		sum += z * z * z
	}
	return analysis.Float(n / ((n - 1) * (n - 2)) * sum)
}

// kurtosis is the sample excess kurtosis; degenerate below 4 values
func kurtosis(data []float64, mean, stdDev float64) analysis.Float {
	if stdDev == 0 {
		return 0
	}
	n := float64(len(data))
	if len(data) < 4 || math.IsInf(stdDev, 0) || math.IsNaN(stdDev) {
		return analysis.NaN()
	}
	sum := 0.0
	for _, v := range data {
		z := (v - mean) / stdDev
		sum += z * z * z * z
	}
	term := n * (n + 1) / ((n - 1) * (n - 2) * (n - 3)) * sum
	correction := 3 * (n - 1) * (n - 1) / ((n - 2) * (n - 3))
	return analysis.Float(term - correction)
}
