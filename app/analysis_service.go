package app

import (
	"context"
	"time"

	"insightdash/adapters/llm/heuristic"
	"insightdash/domain/analysis"
	"insightdash/domain/core"
	"insightdash/domain/table"
	"insightdash/internal"
	"insightdash/internal/analysis/eda"
	"insightdash/internal/errors"
	"insightdash/internal/metrics"
	"insightdash/ports"
)

// AnalysisService runs the EDA engine and attaches insights to the summary
type AnalysisService struct {
	engine    *eda.Engine
	generator ports.InsightGenerator
	fallback  ports.InsightGenerator
	metrics   *metrics.Metrics
	logger    *internal.Logger
}

// AnalysisReport is the response of one "analyze dataset" call
type AnalysisReport struct {
	Summary       *analysis.Summary  `json:"summary"`
	Insights      []analysis.Insight `json:"insights"`
	InsightSource string             `json:"insightSource"`
}

// NewAnalysisService creates an analysis service. generator may be nil, in
// which case only the rule-based insights are produced.
func NewAnalysisService(engine *eda.Engine, generator ports.InsightGenerator, m *metrics.Metrics, logger *internal.Logger) *AnalysisService {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{
		engine:    engine,
		generator: generator,
		fallback:  heuristic.NewGenerator(),
		metrics:   m,
		logger:    logger.Named("analysis"),
	}
}

// Analyze runs the pipeline over an in-memory table
func (s *AnalysisService) Analyze(ctx context.Context, datasetID core.DatasetID, t table.Table) (*AnalysisReport, error) {
	start := time.Now()
	summary, err := s.engine.Analyze(ctx, datasetID, t)
	if err != nil {
		s.metrics.ObserveAnalysis(outcomeFor(err), time.Since(start), 0)
		s.logger.Warn("analysis of dataset %q failed: %v", datasetID, err)
		return nil, err
	}
	s.metrics.ObserveAnalysis(metrics.OutcomeOK, time.Since(start), summary.TotalRows)
	for _, skipped := range summary.Skipped {
		s.metrics.ObserveSkipped(skipped.Analysis)
		s.logger.Debug("run %s skipped %s: %s", summary.RunID, skipped.Analysis, skipped.Reason)
	}

	insights, source := s.generateInsights(ctx, summary)
	return &AnalysisReport{Summary: summary, Insights: insights, InsightSource: source}, nil
}

// AnalyzeSource loads a table from src and analyzes it
func (s *AnalysisService) AnalyzeSource(ctx context.Context, datasetID core.DatasetID, src ports.TableSource) (*AnalysisReport, error) {
	t, err := src.LoadTable(ctx)
	if err != nil {
		s.metrics.ObserveAnalysis(outcomeFor(err), 0, 0)
		return nil, err
	}
	return s.Analyze(ctx, datasetID, t)
}

// generateInsights prefers the configured generator and falls back to the
// rule-based one when it is missing, fails or returns nothing
func (s *AnalysisService) generateInsights(ctx context.Context, summary *analysis.Summary) ([]analysis.Insight, string) {
	if s.generator != nil {
		insights, err := s.generator.GenerateInsights(ctx, summary)
		switch {
		case err != nil:
			s.logger.Warn("run %s: %s insights failed, using rules: %v", summary.RunID, s.generator.Name(), err)
			s.metrics.ObserveFallback("error")
		case len(insights) == 0:
			s.logger.Warn("run %s: %s returned no insights, using rules", summary.RunID, s.generator.Name())
			s.metrics.ObserveFallback("empty")
		default:
			s.metrics.ObserveInsights(s.generator.Name(), len(insights))
			return insights, s.generator.Name()
		}
	}

	// the rule-based generator does not fail
	insights, _ := s.fallback.GenerateInsights(ctx, summary)
	s.metrics.ObserveInsights(s.fallback.Name(), len(insights))
	return insights, s.fallback.Name()
}

func outcomeFor(err error) string {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, errors.CodeResourceLimit:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
