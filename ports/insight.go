package ports

import (
	"context"

	"insightdash/domain/analysis"
)

// InsightGenerator turns a computed summary into dashboard insights
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, summary *analysis.Summary) ([]analysis.Insight, error)

	// Name identifies the generator in logs and responses
	Name() string
}
