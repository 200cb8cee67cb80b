package analysis

import (
	"encoding/json"
	"math"
	"strconv"

	"insightdash/domain/core"
	"insightdash/domain/table"
)

// Float is a statistic that may be degenerate. NaN and ±Inf encode as null.
type Float float64

// NaN returns the degenerate sentinel
func NaN() Float { return Float(math.NaN()) }

// IsDegenerate reports whether the statistic could not be computed
func (f Float) IsDegenerate() bool {
	v := float64(f)
	return math.IsNaN(v) || math.IsInf(v, 0)
}

func (f Float) MarshalJSON() ([]byte, error) {
	if f.IsDegenerate() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NaN()
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// MissingValueStat counts nulls in one column of the cleaned table
type MissingValueStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DataQualityReport describes what cleaning did to the input
type DataQualityReport struct {
	OriginalRows           int                         `json:"originalRows"`
	DuplicatesRemoved      int                         `json:"duplicatesRemoved"`
	InvalidRowsRemoved     int                         `json:"invalidRowsRemoved"`
	FinalRows              int                         `json:"finalRows"`
	MissingValuesPerColumn map[string]MissingValueStat `json:"missingValuesPerColumn"`
}

// ColumnClassification partitions columns into numeric and categorical
type ColumnClassification struct {
	Columns            []string `json:"columns"`
	NumericColumns     []string `json:"numericColumns"`
	CategoricalColumns []string `json:"categoricalColumns"`
}

// DescriptiveStats summarizes one numeric column
type DescriptiveStats struct {
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	StdDev       float64 `json:"stdDev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Count        int     `json:"count"`
	Q1           float64 `json:"q1"`
	Q3           float64 `json:"q3"`
	IQR          float64 `json:"iqr"`
	OutlierCount int     `json:"outlierCount"`
	Skewness     Float   `json:"skewness"`
	Kurtosis     Float   `json:"kurtosis"`
}

// MarshalJSON encodes statistics that overflowed as null
func (s DescriptiveStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mean         Float `json:"mean"`
		Median       Float `json:"median"`
		StdDev       Float `json:"stdDev"`
		Min          Float `json:"min"`
		Max          Float `json:"max"`
		Count        int   `json:"count"`
		Q1           Float `json:"q1"`
		Q3           Float `json:"q3"`
		IQR          Float `json:"iqr"`
		OutlierCount int   `json:"outlierCount"`
		Skewness     Float `json:"skewness"`
		Kurtosis     Float `json:"kurtosis"`
	}{
		Mean:         Float(s.Mean),
		Median:       Float(s.Median),
		StdDev:       Float(s.StdDev),
		Min:          Float(s.Min),
		Max:          Float(s.Max),
		Count:        s.Count,
		Q1:           Float(s.Q1),
		Q3:           Float(s.Q3),
		IQR:          Float(s.IQR),
		OutlierCount: s.OutlierCount,
		Skewness:     s.Skewness,
		Kurtosis:     s.Kurtosis,
	})
}

// ClusteringResult is empty (apart from SkipReason) when clustering was skipped
type ClusteringResult struct {
	Method         string      `json:"method,omitempty"`
	K              int         `json:"k,omitempty"`
	Features       []string    `json:"features,omitempty"`
	Clusters       map[int]int `json:"clusters,omitempty"`
	Centroids      [][]Float   `json:"centroids,omitempty"`
	RowsConsidered int         `json:"rowsConsidered,omitempty"`
	Iterations     int         `json:"iterations,omitempty"`
	Converged      bool        `json:"converged,omitempty"`
	SkipReason     string      `json:"skipReason,omitempty"`

	// Labels maps cleaned-row index to cluster label. Rows without every
	// feature have no entry.
	Labels map[int]int `json:"-"`
}

// Ran reports whether clustering produced clusters
func (c ClusteringResult) Ran() bool { return c.K > 0 }

// LinearRegressionResult is an OLS fit of yColumn on xColumn
type LinearRegressionResult struct {
	XColumn     string `json:"xColumn"`
	YColumn     string `json:"yColumn"`
	Slope       Float  `json:"slope"`
	Intercept   Float  `json:"intercept"`
	RSquared    Float  `json:"rSquared"`
	Correlation Float  `json:"correlation"`
	PValue      Float  `json:"pValue"`
	Equation    string `json:"equation"`
	N           int    `json:"n"`
}

// LogisticRegressionResult is a single-feature binary classifier
type LogisticRegressionResult struct {
	FeatureColumn  string    `json:"featureColumn"`
	TargetColumn   string    `json:"targetColumn"`
	Weight         float64   `json:"weight"`
	Bias           float64   `json:"bias"`
	Accuracy       float64   `json:"accuracy"`
	Classes        [2]string `json:"classes"`
	Interpretation string    `json:"interpretation"`
	N              int       `json:"n"`
}

// VisualizationSpec is a chart-ready aggregate; rendering happens elsewhere
type VisualizationSpec struct {
	Type           string           `json:"type"`
	AvailableTypes []string         `json:"availableTypes"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	XAxis          string           `json:"xAxis"`
	YAxis          string           `json:"yAxis"`
	Data           []map[string]any `json:"data"`
}

// SkippedAnalysis records an analysis whose preconditions were not met
type SkippedAnalysis struct {
	Analysis string `json:"analysis"`
	Reason   string `json:"reason"`
}

// Analysis names used in SkippedAnalysis
const (
	AnalysisClustering         = "clustering"
	AnalysisLinearRegression   = "linear_regression"
	AnalysisLogisticRegression = "logistic_regression"
)

// Summary is the aggregate report of a single analysis run
type Summary struct {
	RunID              core.RunID                  `json:"runId"`
	DatasetID          core.DatasetID              `json:"datasetId,omitempty"`
	DataQuality        DataQualityReport           `json:"dataQuality"`
	TotalRows          int                         `json:"totalRows"`
	Columns            []string                    `json:"columns"`
	NumericColumns     []string                    `json:"numericColumns"`
	CategoricalColumns []string                    `json:"categoricalColumns"`
	DescriptiveStats   map[string]DescriptiveStats `json:"descriptiveStats"`
	Clustering         ClusteringResult            `json:"clustering"`
	LinearRegression   []LinearRegressionResult    `json:"linearRegression"`
	LogisticRegression []LogisticRegressionResult  `json:"logisticRegression"`
	Visualizations     []VisualizationSpec         `json:"visualizations"`
	Skipped            []SkippedAnalysis           `json:"skipped"`
	SampleData         table.Table                 `json:"sampleData"`
}

// Insight is a short finding shown on the dashboard
type Insight struct {
	Type            string  `json:"type"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// Insight types produced by the rule-based generator
const (
	InsightDataQuality = "data_quality"
	InsightClustering  = "clustering"
	InsightCorrelation = "correlation"
	InsightOutliers    = "outliers"
	InsightPrediction  = "prediction"
)
