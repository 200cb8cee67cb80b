package eda

import (
	"fmt"
	"math"

	"insightdash/domain/analysis"
	"insightdash/domain/table"
)

const (
	maxBarGroups   = 10
	maxLinePoints  = 50
	maxScatterRows = 100
	histogramBins  = 10
	clusterColumn  = "cluster"
)

// VisualizationInput carries the results that chart specs are derived from.
// Specs never recompute statistics.
type VisualizationInput struct {
	Table            table.Table
	Classification   analysis.ColumnClassification
	Stats            map[string]analysis.DescriptiveStats
	LinearRegression []analysis.LinearRegressionResult
	Labels           map[int]int
}

// BuildVisualizations returns chart-ready aggregates for the dashboard
func BuildVisualizations(in VisualizationInput) []analysis.VisualizationSpec {
	specs := []analysis.VisualizationSpec{}
	if len(in.Classification.NumericColumns) == 0 {
		return specs
	}
	numeric := in.Classification.NumericColumns[0]

	if category, ok := firstGroupingColumn(in.Classification.CategoricalColumns); ok {
		specs = append(specs, barSpec(in.Table, category, numeric))
	}
	specs = append(specs, lineSpec(in.Table, numeric))
	if len(in.LinearRegression) > 0 {
		specs = append(specs, scatterSpec(in.Table, in.LinearRegression[0], in.Labels))
	}
	if s, ok := in.Stats[numeric]; ok {
		specs = append(specs, histogramSpec(in.Table, numeric, s))
	}
	return specs
}

func firstGroupingColumn(categorical []string) (string, bool) {
	for _, col := range categorical {
		if col != clusterColumn {
			return col, true
		}
	}
	return "", false
}

func barSpec(t table.Table, category, numeric string) analysis.VisualizationSpec {
	var order []string
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, row := range t.Rows {
		cv, nv := row.Get(category), row.Get(numeric)
		if cv.IsMissing() || !nv.IsNumeric() {
			continue
		}
		key := cv.String()
		if _, seen := counts[key]; !seen {
			if len(order) == maxBarGroups {
				continue
			}
			order = append(order, key)
		}
		sums[key] += nv.AsFloat64()
		counts[key]++
	}

	data := make([]map[string]any, 0, len(order))
	for _, key := range order {
		data = append(data, map[string]any{
			"name":  key,
			"value": chartValue(sums[key] / float64(counts[key])),
			"count": counts[key],
		})
	}
	return analysis.VisualizationSpec{
		Type:           "bar",
		AvailableTypes: []string{"bar", "pie"},
		Title:          fmt.Sprintf("Average %s by %s", numeric, category),
		Description:    fmt.Sprintf("Mean of %s for the first %d groups of %s", numeric, len(order), category),
		XAxis:          category,
		YAxis:          numeric,
		Data:           data,
	}
}

func lineSpec(t table.Table, numeric string) analysis.VisualizationSpec {
	n := min(t.Len(), maxLinePoints)
	data := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		point := map[string]any{"index": i, "value": nil}
		if v := t.Rows[i].Get(numeric); v.IsNumeric() {
			point["value"] = v.AsFloat64()
		}
		data = append(data, point)
	}
	return analysis.VisualizationSpec{
		Type:           "line",
		AvailableTypes: []string{"line", "area", "bar"},
		Title:          fmt.Sprintf("%s trend", numeric),
		Description:    fmt.Sprintf("%s over the first %d rows", numeric, n),
		XAxis:          "index",
		YAxis:          numeric,
		Data:           data,
	}
}

func scatterSpec(t table.Table, fit analysis.LinearRegressionResult, labels map[int]int) analysis.VisualizationSpec {
	data := make([]map[string]any, 0, maxScatterRows)
	for i, row := range t.Rows {
		if len(data) == maxScatterRows {
			break
		}
		xv, yv := row.Get(fit.XColumn), row.Get(fit.YColumn)
		if !xv.IsNumeric() || !yv.IsNumeric() {
			continue
		}
		point := map[string]any{"x": xv.AsFloat64(), "y": yv.AsFloat64()}
		if label, ok := labels[i]; ok {
			point[clusterColumn] = label
		}
		data = append(data, point)
	}
	return analysis.VisualizationSpec{
		Type:           "scatter",
		AvailableTypes: []string{"scatter"},
		Title:          fmt.Sprintf("%s vs %s", fit.YColumn, fit.XColumn),
		Description:    fit.Equation,
		XAxis:          fit.XColumn,
		YAxis:          fit.YColumn,
		Data:           data,
	}
}

// histogramSpec bins a column over [min, max] taken from its stats.
// The last bin includes max.
func histogramSpec(t table.Table, numeric string, s analysis.DescriptiveStats) analysis.VisualizationSpec {
	bins := histogramBins
	if s.Min == s.Max {
		bins = 1
	}
	width := (s.Max - s.Min) / float64(bins)
	if math.IsInf(width, 0) {
		width = s.Max/float64(bins) - s.Min/float64(bins)
	}
	counts := make([]int, bins)
	for _, v := range numericValues(t, numeric) {
		idx := 0
		if width > 0 {
			pos := (v - s.Min) / width
			if math.IsInf(pos, 0) {
				pos = v/width - s.Min/width
			}
			switch {
			case math.IsNaN(pos) || pos >= float64(bins):
				idx = bins - 1
			case pos > 0:
				idx = int(pos)
			}
		}
		counts[idx]++
	}

	data := make([]map[string]any, bins)
	for i := range counts {
		start := binEdge(s.Min, width, s.Max, i, bins)
		end := binEdge(s.Min, width, s.Max, i+1, bins)
		if i == bins-1 {
			end = s.Max
		}
		data[i] = map[string]any{"binStart": chartValue(start), "binEnd": chartValue(end), "count": counts[i]}
	}
	return analysis.VisualizationSpec{
		Type:           "histogram",
		AvailableTypes: []string{"histogram", "bar"},
		Title:          fmt.Sprintf("Distribution of %s", numeric),
		Description:    fmt.Sprintf("%d equal-width bins from %g to %g", bins, s.Min, s.Max),
		XAxis:          numeric,
		YAxis:          "count",
		Data:           data,
	}
}

// binEdge is the i-th bin boundary, interpolated between lo and hi when
// stepping by width would overflow
func binEdge(lo, width, hi float64, i, bins int) float64 {
	edge := lo + float64(i)*width
	if !math.IsInf(edge, 0) {
		return edge
	}
	f := float64(i) / float64(bins)
	return lo*(1-f) + hi*f
}

// chartValue keeps non-finite numbers out of chart data
func chartValue(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
