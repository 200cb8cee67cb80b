package report

import (
	"fmt"
	"sort"
	"strings"

	"insightdash/domain/analysis"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders a summary and its insights as a Markdown document
func Markdown(summary *analysis.Summary, insights []analysis.Insight) string {
	var b strings.Builder

	title := "Dataset analysis"
	if !summary.DatasetID.IsEmpty() {
		title = fmt.Sprintf("Dataset analysis: %s", summary.DatasetID)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Run `%s`\n\n", summary.RunID)

	q := summary.DataQuality
	b.WriteString("## Data quality\n\n")
	b.WriteString("| Original rows | Duplicates removed | Empty rows removed | Final rows |\n")
	b.WriteString("|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n", q.OriginalRows, q.DuplicatesRemoved, q.InvalidRowsRemoved, q.FinalRows)
	if len(q.MissingValuesPerColumn) > 0 {
		b.WriteString("| Column | Missing | % |\n|---|---:|---:|\n")
		for _, col := range sortedKeys(q.MissingValuesPerColumn) {
			m := q.MissingValuesPerColumn[col]
			fmt.Fprintf(&b, "| %s | %d | %.1f |\n", escape(col), m.Count, m.Percentage)
		}
		b.WriteString("\n")
	}

	if len(insights) > 0 {
		b.WriteString("## Insights\n\n")
		for _, in := range insights {
			fmt.Fprintf(&b, "- **%s** (%s, confidence %.2f): %s\n", in.Title, in.Type, in.ConfidenceScore, in.Description)
		}
		b.WriteString("\n")
	}

	if len(summary.NumericColumns) > 0 {
		b.WriteString("## Descriptive statistics\n\n")
		b.WriteString("| Column | Count | Mean | Median | Std dev | Min | Q1 | Q3 | Max | Outliers | Skew | Kurtosis |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, col := range summary.NumericColumns {
			s, ok := summary.DescriptiveStats[col]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s | %s | %s | %s | %d | %s | %s |\n",
				escape(col), s.Count, num(s.Mean), num(s.Median), num(s.StdDev), num(s.Min),
				num(s.Q1), num(s.Q3), num(s.Max), s.OutlierCount, stat(s.Skewness), stat(s.Kurtosis))
		}
		b.WriteString("\n")
	}
	if len(summary.CategoricalColumns) > 0 {
		fmt.Fprintf(&b, "Categorical columns: %s\n\n", strings.Join(summary.CategoricalColumns, ", "))
	}

	b.WriteString("## Models\n\n")
	c := summary.Clustering
	if c.Ran() {
		sizes := make([]string, 0, c.K)
		for label := 0; label < c.K; label++ {
			sizes = append(sizes, fmt.Sprintf("%d: %d", label, c.Clusters[label]))
		}
		fmt.Fprintf(&b, "- Clustering: %s with k = %d on %s (%s), %d iterations\n",
			c.Method, c.K, strings.Join(c.Features, ", "), strings.Join(sizes, ", "), c.Iterations)
	}
	for _, fit := range summary.LinearRegression {
		fmt.Fprintf(&b, "- Linear: %s on %s, `%s`, R² %s, r %s, p %s, n = %d\n",
			fit.YColumn, fit.XColumn, fit.Equation, stat(fit.RSquared), stat(fit.Correlation), stat(fit.PValue), fit.N)
	}
	for _, fit := range summary.LogisticRegression {
		fmt.Fprintf(&b, "- Logistic: %s from %s, accuracy %.1f%%, n = %d\n",
			fit.TargetColumn, fit.FeatureColumn, fit.Accuracy*100, fit.N)
	}
	for _, s := range summary.Skipped {
		fmt.Fprintf(&b, "- Skipped %s: %s\n", strings.ReplaceAll(s.Analysis, "_", " "), s.Reason)
	}
	return b.String()
}

// HTML renders the Markdown report as a standalone HTML page
func HTML(summary *analysis.Summary, insights []analysis.Insight) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(Markdown(summary, insights)))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank,
		Title: "Dataset analysis",
	})
	return markdown.Render(doc, renderer)
}

func num(v float64) string {
	if analysis.Float(v).IsDegenerate() {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", v)
}

func stat(v analysis.Float) string {
	return num(float64(v))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func sortedKeys(m map[string]analysis.MissingValueStat) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
