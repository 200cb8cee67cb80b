package eda

import (
	"insightdash/domain/analysis"
	"insightdash/domain/table"
)

// Classify partitions columns into numeric and categorical, preserving column order.
// A column is numeric when it has at least one non-null value and every
// non-null value is a number. All-null columns are categorical.
func Classify(t table.Table) analysis.ColumnClassification {
	result := analysis.ColumnClassification{
		Columns:            append([]string(nil), t.Columns...),
		NumericColumns:     []string{},
		CategoricalColumns: []string{},
	}
	for _, col := range t.Columns {
		if isNumericColumn(t, col) {
			result.NumericColumns = append(result.NumericColumns, col)
		} else {
			result.CategoricalColumns = append(result.CategoricalColumns, col)
		}
	}
	return result
}

func isNumericColumn(t table.Table, col string) bool {
	sawNumber := false
	for _, row := range t.Rows {
		v := row.Get(col)
		switch {
		case v.IsMissing():
			continue
		case v.IsNumeric():
			sawNumber = true
		default:
			return false
		}
	}
	return sawNumber
}

// numericValues returns the non-null numbers of col in row order
func numericValues(t table.Table, col string) []float64 {
	out := make([]float64, 0, t.Len())
	for _, row := range t.Rows {
		if v := row.Get(col); v.IsNumeric() {
			out = append(out, v.AsFloat64())
		}
	}
	return out
}
