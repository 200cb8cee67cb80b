package eda

import (
	"sort"
	"strconv"
	"strings"

	"insightdash/adapters/datareadiness/coercer"
	"insightdash/domain/analysis"
	"insightdash/domain/table"
	"insightdash/internal/errors"
)

// Cleaner normalizes cells, removes duplicate rows and drops all-null rows
type Cleaner struct {
	coercer *coercer.TypeCoercer
}

// NewCleaner creates a cleaner with the default missing-value tokens
func NewCleaner() *Cleaner {
	return &Cleaner{coercer: coercer.NewTypeCoercer(coercer.DefaultCoercionConfig())}
}

// Clean returns the cleaned table and a report of what was removed.
// The input table is not modified.
func (c *Cleaner) Clean(t table.Table) (table.Table, analysis.DataQualityReport, error) {
	if t.Len() == 0 {
		return table.Table{}, analysis.DataQualityReport{}, errors.InvalidInput("dataset is empty")
	}
	if len(t.Columns) == 0 {
		return table.Table{}, analysis.DataQualityReport{}, errors.InvalidInput("dataset has no columns")
	}

	columns := append([]string(nil), t.Columns...)
	sortedCols := append([]string(nil), columns...)
	sort.Strings(sortedCols)

	seen := make(map[string]bool, t.Len())
	unique := make([]table.Row, 0, t.Len())
	for _, raw := range t.Rows {
		row := make(table.Row, len(columns))
		for _, col := range columns {
			row[col] = c.coercer.CoerceValue(raw.Get(col))
		}
		key := canonicalKey(row, sortedCols)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, row)
	}

	final := make([]table.Row, 0, len(unique))
	for _, row := range unique {
		if allMissing(row, columns) {
			continue
		}
		final = append(final, row)
	}

	report := analysis.DataQualityReport{
		OriginalRows:           t.Len(),
		DuplicatesRemoved:      t.Len() - len(unique),
		InvalidRowsRemoved:     len(unique) - len(final),
		FinalRows:              len(final),
		MissingValuesPerColumn: make(map[string]analysis.MissingValueStat),
	}
	for _, col := range columns {
		missing := 0
		for _, row := range final {
			if row[col].IsMissing() {
				missing++
			}
		}
		if missing == 0 {
			continue
		}
		report.MissingValuesPerColumn[col] = analysis.MissingValueStat{
			Count:      missing,
			Percentage: float64(missing) / float64(len(final)) * 100,
		}
	}

	return table.Table{Columns: columns, Rows: final}, report, nil
}

// canonicalKey serializes a normalized row with columns in sorted order.
// Type tags keep the number 1 and the string "1" distinct.
func canonicalKey(row table.Row, sortedCols []string) string {
	var b strings.Builder
	for _, col := range sortedCols {
		b.WriteString(strconv.Quote(col))
		b.WriteByte(':')
		v := row[col]
		switch v.Type() {
		case table.ValueTypeNumeric:
			b.WriteString("n")
			b.WriteString(strconv.FormatFloat(v.AsFloat64(), 'g', -1, 64))
		case table.ValueTypeString:
			b.WriteString("s")
			b.WriteString(strconv.Quote(v.AsString()))
		default:
			b.WriteString("_")
		}
		b.WriteByte(',')
	}
	return b.String()
}

func allMissing(row table.Row, columns []string) bool {
	for _, col := range columns {
		if !row[col].IsMissing() {
			return false
		}
	}
	return true
}
