package container

import (
	"context"
	"fmt"

	"insightdash/adapters/llm"
	"insightdash/adapters/postgres"
	"insightdash/adapters/rng"
	"insightdash/app"
	"insightdash/internal"
	"insightdash/internal/analysis/eda"
	"insightdash/internal/config"
	"insightdash/internal/metrics"
	"insightdash/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	Logger  *internal.Logger
	Metrics *metrics.Metrics
	DB      *sqlx.DB

	// Analysis
	Engine    *eda.Engine
	Generator ports.InsightGenerator
	Service   *app.AnalysisService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:  cfg,
		Logger:  internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
		Metrics: metrics.New(),
	}

	c.Engine = eda.NewEngine(eda.Options{
		MaxRows:    cfg.Analysis.MaxRows,
		MaxColumns: cfg.Analysis.MaxColumns,
		RNG:        rng.FromSeed(cfg.Analysis.Seed),
		Logger:     c.Logger,
	})

	if err := c.initAIComponents(); err != nil {
		return nil, err
	}

	c.Service = app.NewAnalysisService(c.Engine, c.Generator, c.Metrics, c.Logger)
	return c, nil
}

// initAIComponents wires the LLM insight generator when a key is configured
func (c *Container) initAIComponents() error {
	if !c.Config.AI.Enabled() {
		c.Logger.Info("no LLM configured, insights come from rules")
		return nil
	}

	llmConfig := llm.Config{
		Model:       c.Config.AI.OpenAIModel,
		APIKey:      c.Config.AI.OpenAIKey,
		BaseURL:     c.Config.AI.BaseURL,
		Temperature: c.Config.AI.Temperature,
		MaxTokens:   c.Config.AI.MaxTokens,
		Timeout:     c.Config.AI.Timeout,
	}
	client, err := llm.NewOpenAIClient(llmConfig)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	c.Generator = llm.NewInsightGenerator(llmConfig, client)
	c.Logger.Info("LLM insights enabled with model %s", llmConfig.Model)
	return nil
}

// InitWithDatabase opens the configured database for query-backed table sources
func (c *Container) InitWithDatabase(ctx context.Context) error {
	if c.DB != nil {
		return nil
	}
	db, err := postgres.Connect(ctx, c.Config.Database.URL)
	if err != nil {
		return err
	}
	c.DB = db
	return nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
