package eda

import (
	"context"
	"fmt"
	"math"

	"insightdash/domain/analysis"
	"insightdash/domain/table"
	"insightdash/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// maxRegressionPairs caps the number of linear fits per run
	maxRegressionPairs = 3
	// regressionColumns is how many leading numeric columns are paired
	regressionColumns  = 4

	minLogisticObservations = 10
	logisticLearningRate    = 0.01
	logisticIterations      = 1000
)

// LinearRegressions fits y on x for pairs of the leading numeric columns
func LinearRegressions(t table.Table, numericCols []string) ([]analysis.LinearRegressionResult, []analysis.SkippedAnalysis) {
	results := []analysis.LinearRegressionResult{}
	var skipped []analysis.SkippedAnalysis

	n := len(numericCols)
	outerLimit := min(n-1, regressionColumns-1)
	innerLimit := min(n, regressionColumns)
	for i := 0; i < outerLimit && len(results) < maxRegressionPairs; i++ {
		for j := i + 1; j < innerLimit && len(results) < maxRegressionPairs; j++ {
			xCol, yCol := numericCols[i], numericCols[j]
			x, y := pairedValues(t, xCol, yCol)
			if len(x) == 0 {
				skipped = append(skipped, analysis.SkippedAnalysis{
					Analysis: analysis.AnalysisLinearRegression,
					Reason:   fmt.Sprintf("%s and %s share no observations", xCol, yCol),
				})
				continue
			}
			results = append(results, fitLinear(xCol, yCol, x, y))
		}
	}
	if n < 2 {
		skipped = append(skipped, analysis.SkippedAnalysis{
			Analysis: analysis.AnalysisLinearRegression,
			Reason:   "fewer than 2 numeric columns",
		})
	}
	return results, skipped
}

func fitLinear(xCol, yCol string, x, y []float64) analysis.LinearRegressionResult {
	result := analysis.LinearRegressionResult{
		XColumn:     xCol,
		YColumn:     yCol,
		Slope:       analysis.NaN(),
		Intercept:   analysis.NaN(),
		RSquared:    analysis.NaN(),
		Correlation: analysis.NaN(),
		PValue:      analysis.NaN(),
		N:           len(x),
	}

	meanX, varX := stat.PopMeanVariance(x, nil)
	meanY, varY := stat.PopMeanVariance(y, nil)
	if math.IsInf(varX, 0) || math.IsNaN(varX) {
		result.Equation = fmt.Sprintf("undefined (%s variance overflows)", xCol)
		return result
	}

	if varX > 0 {
		sxy := 0.0
		for i := range x {
			sxy += (x[i] - meanX) * (y[i] - meanY)
		}
		sxx := varX * float64(len(x))
		slope := sxy / sxx
		intercept := meanY - slope*meanX
		result.Slope = analysis.Float(slope)
		result.Intercept = analysis.Float(intercept)
		result.Equation = formatEquation(slope, intercept)

		if varY > 0 {
			ssTot := varY * float64(len(y))
			ssRes := 0.0
			for i := range x {
				r := y[i] - (slope*x[i] + intercept)
				ssRes += r * r
			}
			result.RSquared = analysis.Float(1 - ssRes/ssTot)

			r := stat.Correlation(x, y, nil)
			result.Correlation = analysis.Float(r)
			result.PValue = correlationPValue(r, len(x))
		}
	} else {
		result.Equation = fmt.Sprintf("undefined (%s is constant)", xCol)
	}
	return result
}

// correlationPValue is the two-sided p-value of Pearson r under H0: rho = 0
func correlationPValue(r float64, n int) analysis.Float {
	if n < 3 || math.IsNaN(r) {
		return analysis.NaN()
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	tStat := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return analysis.Float(2 * (1 - dist.CDF(math.Abs(tStat))))
}

func formatEquation(slope, intercept float64) string {
	if intercept < 0 {
		return fmt.Sprintf("y = %.4fx - %.4f", slope, -intercept)
	}
	return fmt.Sprintf("y = %.4fx + %.4f", slope, intercept)
}

// pairedValues returns x and y for rows where both columns are numbers
func pairedValues(t table.Table, xCol, yCol string) ([]float64, []float64) {
	var x, y []float64
	for _, row := range t.Rows {
		xv, yv := row.Get(xCol), row.Get(yCol)
		if xv.IsNumeric() && yv.IsNumeric() {
			x = append(x, xv.AsFloat64())
			y = append(y, yv.AsFloat64())
		}
	}
	return x, y
}

// LogisticRegression fits a single-feature binary classifier on the first
// binary categorical column. The skip reason is non-empty when no model was fit.
func LogisticRegression(ctx context.Context, t table.Table, cls analysis.ColumnClassification) (*analysis.LogisticRegressionResult, string, error) {
	if len(cls.NumericColumns) == 0 {
		return nil, "no numeric feature column", nil
	}
	target, classes, ok := binaryTarget(t, cls.CategoricalColumns)
	if !ok {
		return nil, "no categorical column with exactly 2 distinct values", nil
	}
	feature := cls.NumericColumns[0]

	var x, y []float64
	for _, row := range t.Rows {
		fv, tv := row.Get(feature), row.Get(target)
		if !fv.IsNumeric() || tv.IsMissing() {
			continue
		}
		x = append(x, fv.AsFloat64())
		if tv.String() == classes[0] {
			y = append(y, 0)
		} else {
			y = append(y, 1)
		}
	}
	if len(x) < minLogisticObservations {
		return nil, fmt.Sprintf("only %d paired observations of %s and %s, need %d",
			len(x), feature, target, minLogisticObservations), nil
	}

	mean, variance := stat.PopMeanVariance(x, nil)
	sd := math.Sqrt(variance)
	z := make([]float64, len(x))
	for i, v := range x {
		z[i] = zScore(v, mean, sd)
	}

	weight, bias := 0.0, 0.0
	residual := make([]float64, len(z))
	m := float64(len(z))
	for iter := 0; iter < logisticIterations; iter++ {
		if iter%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, "", errors.Canceled(err)
			}
		}
		for i := range z {
			residual[i] = sigmoid(weight*z[i]+bias) - y[i]
		}
		gradW := floats.Dot(residual, z) / m
		gradB := floats.Sum(residual) / m
		weight -= logisticLearningRate * gradW
		bias -= logisticLearningRate * gradB
	}

	correct := 0
	for i := range z {
		predicted := 0.0
		if sigmoid(weight*z[i]+bias) >= 0.5 {
			predicted = 1
		}
		if predicted == y[i] {
			correct++
		}
	}

	interpretation := fmt.Sprintf("each standard deviation increase in %s multiplies the odds of %s = %q by %.2f",
		feature, target, classes[1], math.Exp(weight))

	return &analysis.LogisticRegressionResult{
		FeatureColumn:  feature,
		TargetColumn:   target,
		Weight:         weight,
		Bias:           bias,
		Accuracy:       float64(correct) / m,
		Classes:        classes,
		Interpretation: interpretation,
		N:              len(z),
	}, "", nil
}

// binaryTarget finds the first column with exactly two distinct non-null
// values, returned in first-seen order
func binaryTarget(t table.Table, categorical []string) (string, [2]string, bool) {
	for _, col := range categorical {
		var distinct []string
		for _, row := range t.Rows {
			v := row.Get(col)
			if v.IsMissing() {
				continue
			}
			s := v.String()
			if len(distinct) > 0 && distinct[0] == s || len(distinct) > 1 && distinct[1] == s {
				continue
			}
			distinct = append(distinct, s)
			if len(distinct) > 2 {
				break
			}
		}
		if len(distinct) == 2 {
			return col, [2]string{distinct[0], distinct[1]}, true
		}
	}
	return "", [2]string{}, false
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
