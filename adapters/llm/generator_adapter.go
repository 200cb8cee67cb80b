package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"insightdash/domain/analysis"
	"insightdash/domain/table"
	"insightdash/internal/errors"
	"insightdash/ports"
)

const maxInsights = 8

// InsightGenerator implements ports.InsightGenerator using an LLM
type InsightGenerator struct {
	config    Config
	llmClient ports.LLMClient
}

// NewInsightGenerator creates a new LLM insight generator
func NewInsightGenerator(config Config, client ports.LLMClient) *InsightGenerator {
	return &InsightGenerator{config: config, llmClient: client}
}

// Name identifies the generator
func (g *InsightGenerator) Name() string { return "llm" }

// GenerateInsights asks the model for insights about a summary. An empty
// result is not an error; callers decide whether to fall back.
func (g *InsightGenerator) GenerateInsights(ctx context.Context, summary *analysis.Summary) ([]analysis.Insight, error) {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	prompt, err := BuildPrompt(summary)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build prompt")
	}

	response, err := g.llmClient.ChatCompletion(ctx, g.config.Model, prompt, g.config.MaxTokens)
	if err != nil {
		return nil, errors.ExternalServiceError("llm", err)
	}

	insights, err := ParseInsights(response.Content)
	if err != nil {
		return nil, errors.ExternalServiceError("llm", err)
	}
	return ValidateInsights(insights), nil
}

// BuildPrompt serializes the summary for the model. The sample rows are
// trimmed to keep the prompt small.
func BuildPrompt(summary *analysis.Summary) (string, error) {
	compact := *summary
	if compact.SampleData.Len() > 5 {
		compact.SampleData = table.Table{Columns: compact.SampleData.Columns, Rows: compact.SampleData.Rows[:5]}
	}
	compact.Visualizations = nil

	raw, err := json.Marshal(compact)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	var b strings.Builder
	b.WriteString("Analyze this dataset summary and return between 3 and 6 concise business insights.\n")
	b.WriteString("Respond with ONLY a JSON array. Each element must have the fields ")
	b.WriteString(`"type" (one of data_quality, clustering, correlation, outliers, prediction, trend), `)
	b.WriteString(`"title", "description" and "confidence_score" (0 to 1).` + "\n\n")
	b.WriteString("Summary:\n")
	b.Write(raw)
	return b.String(), nil
}

// ParseInsights parses the model's JSON array, tolerating markdown code fences
func ParseInsights(response string) ([]analysis.Insight, error) {
	jsonStr := response
	if strings.Contains(jsonStr, "```json") {
		start := strings.Index(jsonStr, "```json")
		end := strings.Index(jsonStr[start+7:], "```")
		if end > 0 {
			jsonStr = jsonStr[start+7 : start+7+end]
		}
	} else if strings.Contains(jsonStr, "```") {
		start := strings.Index(jsonStr, "```")
		end := strings.Index(jsonStr[start+3:], "```")
		if end > 0 {
			jsonStr = jsonStr[start+3 : start+3+end]
		}
	}
	jsonStr = strings.TrimSpace(jsonStr)

	var insights []analysis.Insight
	if err := json.Unmarshal([]byte(jsonStr), &insights); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	return insights, nil
}

// ValidateInsights drops entries without text, clamps confidence to [0, 1]
// and caps the list length
func ValidateInsights(insights []analysis.Insight) []analysis.Insight {
	out := make([]analysis.Insight, 0, len(insights))
	for _, in := range insights {
		in.Title = strings.TrimSpace(in.Title)
		in.Description = strings.TrimSpace(in.Description)
		if in.Title == "" || in.Description == "" {
			continue
		}
		if in.Type == "" {
			in.Type = "general"
		}
		in.ConfidenceScore = min(max(in.ConfidenceScore, 0), 1)
		out = append(out, in)
		if len(out) == maxInsights {
			break
		}
	}
	return out
}
