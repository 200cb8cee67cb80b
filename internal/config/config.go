package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"insightdash/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Analysis AnalysisConfig
	Database DatabaseConfig
	LogLevel string `validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required,numeric"`
	GinMode string `validate:"oneof=debug release test"`
}

// AIConfig holds settings for the optional insight-generation model.
// An empty OpenAIKey disables the model and the rule-based insights are used.
type AIConfig struct {
	OpenAIKey   string
	OpenAIModel string        `validate:"required_with=OpenAIKey"`
	BaseURL     string        `validate:"omitempty,url"`
	MaxTokens   int           `validate:"gte=64"`
	Temperature float64       `validate:"gte=0,lte=2"`
	Timeout     time.Duration `validate:"gt=0"`
}

// Enabled reports whether an LLM is configured
func (c AIConfig) Enabled() bool {
	return strings.TrimSpace(c.OpenAIKey) != ""
}

// AnalysisConfig bounds the size of tables the engine accepts
type AnalysisConfig struct {
	MaxRows    int `validate:"gte=1,lte=1000000"`
	MaxColumns int `validate:"gte=1,lte=10000"`
	// Seed makes k-means initialization reproducible; 0 means a fresh seed per run.
	Seed int64
}

// DatabaseConfig configures the optional external table source
type DatabaseConfig struct {
	URL string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   loadServerConfig(),
		AI:       loadAIConfig(),
		Analysis: loadAnalysisConfig(),
		Database: DatabaseConfig{URL: getEnvOrDefault("DATABASE_URL", "")},
		LogLevel: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Validate checks struct constraints on a loaded configuration
func Validate(config *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadAIConfig() AIConfig {
	return AIConfig{
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		BaseURL:     getEnvOrDefault("LLM_BASE_URL", ""),
		MaxTokens:   getEnvIntOrDefault("MAX_TOKENS", 1500),
		Temperature: getEnvFloatOrDefault("TEMPERATURE", 0.3),
		Timeout:     getEnvDurationOrDefault("LLM_TIMEOUT", 30*time.Second),
	}
}

func loadAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		MaxRows:    getEnvIntOrDefault("ANALYSIS_MAX_ROWS", 25000),
		MaxColumns: getEnvIntOrDefault("ANALYSIS_MAX_COLUMNS", 256),
		Seed:       int64(getEnvIntOrDefault("ANALYSIS_SEED", 0)),
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
