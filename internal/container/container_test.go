package container

import (
	"context"
	"testing"
	"time"

	"insightdash/domain/table"
	"insightdash/internal/config"
	"insightdash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: "8080", GinMode: "test"},
		Analysis: config.AnalysisConfig{MaxRows: 100, MaxColumns: 10, Seed: 42},
		AI:       config.AIConfig{OpenAIModel: "gpt-4o-mini", MaxTokens: 500, Timeout: time.Second},
		LogLevel: "ERROR",
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNew_WithoutLLM(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)

	assert.Nil(t, c.Generator)
	require.NotNil(t, c.Service)

	rows := make([]table.Row, 0, 101)
	for i := 0; i < 101; i++ {
		rows = append(rows, table.Row{"x": table.NewNumericValue(float64(i))})
	}
	_, err = c.Service.Analyze(context.Background(), "", table.New([]string{"x"}, rows))
	assert.Equal(t, errors.CodeResourceLimit, errors.GetCode(err))
}

func TestNew_WithLLM(t *testing.T) {
	cfg := testConfig()
	cfg.AI.OpenAIKey = "sk-test"

	c, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, c.Generator)
	assert.Equal(t, "llm", c.Generator.Name())
}

func TestInitWithDatabase_RequiresURL(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)

	err = c.InitWithDatabase(context.Background())
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	assert.NoError(t, c.Shutdown(context.Background()))
}
