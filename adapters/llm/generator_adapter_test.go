package llm

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"insightdash/domain/analysis"
	"insightdash/domain/table"
	"insightdash/internal/errors"
	"insightdash/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	args := m.Called(ctx, model, prompt, maxTokens)
	resp, _ := args.Get(0).(*ports.LLMResponse)
	return resp, args.Error(1)
}

func testSummary() *analysis.Summary {
	rows := make([]table.Row, 10)
	for i := range rows {
		rows[i] = table.Row{"units": table.NewNumericValue(float64(i))}
	}
	return &analysis.Summary{
		RunID:          "run-1",
		TotalRows:      10,
		Columns:        []string{"units"},
		NumericColumns: []string{"units"},
		DataQuality:    analysis.DataQualityReport{OriginalRows: 12, DuplicatesRemoved: 2, FinalRows: 10},
		SampleData:     table.Table{Columns: []string{"units"}, Rows: rows},
	}
}

func TestInsightGenerator_GenerateInsights(t *testing.T) {
	client := new(mockLLMClient)
	client.On("ChatCompletion", mock.Anything, "gpt-4o-mini", mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, `"originalRows":12`)
	}), 800).Return(&ports.LLMResponse{Content: "```json\n" + `[
		{"type":"data_quality","title":"Duplicates","description":"Two rows were duplicates.","confidence_score":0.9},
		{"type":"trend","title":"  ","description":"dropped"},
		{"title":"Units","description":"Units rise steadily.","confidence_score":1.7}
	]` + "\n```"}, nil)

	gen := NewInsightGenerator(Config{Model: "gpt-4o-mini", MaxTokens: 800, Timeout: time.Second}, client)
	insights, err := gen.GenerateInsights(context.Background(), testSummary())
	require.NoError(t, err)

	require.Len(t, insights, 2)
	assert.Equal(t, "data_quality", insights[0].Type)
	assert.Equal(t, "general", insights[1].Type)
	assert.Equal(t, 1.0, insights[1].ConfidenceScore)
	assert.Equal(t, "llm", gen.Name())
	client.AssertExpectations(t)
}

func TestInsightGenerator_ClientError(t *testing.T) {
	client := new(mockLLMClient)
	client.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("connection refused"))

	gen := NewInsightGenerator(Config{Model: "m"}, client)
	_, err := gen.GenerateInsights(context.Background(), testSummary())
	require.Error(t, err)
	assert.Equal(t, errors.CodeExternalService, errors.GetCode(err))
}

func TestInsightGenerator_UnparseableResponse(t *testing.T) {
	client := new(mockLLMClient)
	client.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&ports.LLMResponse{Content: "I cannot help with that."}, nil)

	gen := NewInsightGenerator(Config{Model: "m"}, client)
	_, err := gen.GenerateInsights(context.Background(), testSummary())
	require.Error(t, err)
	assert.Equal(t, errors.CodeExternalService, errors.GetCode(err))
}

func TestBuildPrompt_TrimsSample(t *testing.T) {
	summary := testSummary()
	prompt, err := BuildPrompt(summary)
	require.NoError(t, err)

	assert.Contains(t, prompt, "confidence_score")
	assert.Equal(t, 5, strings.Count(prompt, `{"units":`))
	assert.Equal(t, 10, summary.SampleData.Len())
}

func TestParseInsights(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"bare array", `[{"type":"a","title":"t","description":"d","confidence_score":0.5}]`, 1, false},
		{"plain fence", "```\n[]\n```", 0, false},
		{"prose", "no json here", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInsights(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}
