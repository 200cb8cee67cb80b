package heuristic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"insightdash/domain/analysis"
)

const (
	// minCorrelation is the |r| at which a fit is reported as an insight
	minCorrelation = 0.5
	maxOutlierCols = 3
)

// Generator creates insights from the summary using fixed rules. It never
// fails and always returns at least a data quality insight.
type Generator struct{}

// NewGenerator creates a new heuristic insight generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Name identifies the generator
func (g *Generator) Name() string { return "heuristic" }

// GenerateInsights derives insights from data quality, clustering,
// regression and outlier results
func (g *Generator) GenerateInsights(ctx context.Context, summary *analysis.Summary) ([]analysis.Insight, error) {
	insights := []analysis.Insight{g.dataQualityInsight(summary.DataQuality, len(summary.Columns))}

	if summary.Clustering.Ran() {
		insights = append(insights, g.clusteringInsight(summary.Clustering))
	}
	for _, fit := range summary.LinearRegression {
		if insight, ok := g.correlationInsight(fit); ok {
			insights = append(insights, insight)
		}
	}
	if insight, ok := g.outlierInsight(summary.DescriptiveStats); ok {
		insights = append(insights, insight)
	}
	for _, fit := range summary.LogisticRegression {
		insights = append(insights, g.predictionInsight(fit))
	}
	return insights, nil
}

func (g *Generator) dataQualityInsight(q analysis.DataQualityReport, columns int) analysis.Insight {
	desc := fmt.Sprintf("Analyzed %d of %d rows across %d columns. Removed %d duplicate rows and %d empty rows.",
		q.FinalRows, q.OriginalRows, columns, q.DuplicatesRemoved, q.InvalidRowsRemoved)

	if len(q.MissingValuesPerColumn) > 0 {
		cols := make([]string, 0, len(q.MissingValuesPerColumn))
		for col := range q.MissingValuesPerColumn {
			cols = append(cols, col)
		}
		sort.Slice(cols, func(i, j int) bool {
			a, b := q.MissingValuesPerColumn[cols[i]], q.MissingValuesPerColumn[cols[j]]
			if a.Count != b.Count {
				return a.Count > b.Count
			}
			return cols[i] < cols[j]
		})
		worst := q.MissingValuesPerColumn[cols[0]]
		desc += fmt.Sprintf(" %d columns have missing values; %s is missing %.1f%% of its values.",
			len(cols), cols[0], worst.Percentage)
	} else {
		desc += " No missing values remain."
	}

	return analysis.Insight{
		Type:            analysis.InsightDataQuality,
		Title:           "Data quality overview",
		Description:     desc,
		ConfidenceScore: 1.0,
	}
}

func (g *Generator) clusteringInsight(c analysis.ClusteringResult) analysis.Insight {
	sizes := make([]string, 0, c.K)
	for label := 0; label < c.K; label++ {
		sizes = append(sizes, fmt.Sprintf("%d", c.Clusters[label]))
	}
	confidence := 0.8
	if !c.Converged {
		confidence = 0.6
	}
	return analysis.Insight{
		Type:  analysis.InsightClustering,
		Title: fmt.Sprintf("%d natural groups found", c.K),
		Description: fmt.Sprintf("K-means on %s split %d rows into groups of %s.",
			strings.Join(c.Features, ", "), c.RowsConsidered, strings.Join(sizes, ", ")),
		ConfidenceScore: confidence,
	}
}

func (g *Generator) correlationInsight(fit analysis.LinearRegressionResult) (analysis.Insight, bool) {
	if fit.Correlation.IsDegenerate() {
		return analysis.Insight{}, false
	}
	r := float64(fit.Correlation)
	if math.Abs(r) < minCorrelation {
		return analysis.Insight{}, false
	}

	direction := "positive"
	if r < 0 {
		direction = "negative"
	}
	desc := fmt.Sprintf("%s and %s have a %s correlation (r = %.2f, R² = %.2f, n = %d). Fitted line: %s.",
		fit.XColumn, fit.YColumn, direction, r, float64(fit.RSquared), fit.N, fit.Equation)
	if !fit.PValue.IsDegenerate() {
		desc += fmt.Sprintf(" p = %.3g.", float64(fit.PValue))
	}
	return analysis.Insight{
		Type:            analysis.InsightCorrelation,
		Title:           fmt.Sprintf("Strong %s relationship between %s and %s", direction, fit.XColumn, fit.YColumn),
		Description:     desc,
		ConfidenceScore: math.Abs(r),
	}, true
}

func (g *Generator) outlierInsight(stats map[string]analysis.DescriptiveStats) (analysis.Insight, bool) {
	type colCount struct {
		col   string
		count int
		total int
	}
	var withOutliers []colCount
	for col, s := range stats {
		if s.OutlierCount > 0 {
			withOutliers = append(withOutliers, colCount{col, s.OutlierCount, s.Count})
		}
	}
	if len(withOutliers) == 0 {
		return analysis.Insight{}, false
	}
	sort.Slice(withOutliers, func(i, j int) bool {
		if withOutliers[i].count != withOutliers[j].count {
			return withOutliers[i].count > withOutliers[j].count
		}
		return withOutliers[i].col < withOutliers[j].col
	})

	parts := make([]string, 0, maxOutlierCols)
	for i, c := range withOutliers {
		if i == maxOutlierCols {
			break
		}
		parts = append(parts, fmt.Sprintf("%s (%d of %d)", c.col, c.count, c.total))
	}
	return analysis.Insight{
		Type:            analysis.InsightOutliers,
		Title:           "Outliers detected",
		Description:     "Values outside 1.5 IQR of the quartiles: " + strings.Join(parts, "; ") + ".",
		ConfidenceScore: 0.7,
	}, true
}

func (g *Generator) predictionInsight(fit analysis.LogisticRegressionResult) analysis.Insight {
	return analysis.Insight{
		Type:  analysis.InsightPrediction,
		Title: fmt.Sprintf("%s predicts %s", fit.FeatureColumn, fit.TargetColumn),
		Description: fmt.Sprintf("A logistic model on %s classifies %s with %.0f%% accuracy over %d rows; %s.",
			fit.FeatureColumn, fit.TargetColumn, fit.Accuracy*100, fit.N, fit.Interpretation),
		ConfidenceScore: fit.Accuracy,
	}
}
