package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Condition validation policies applied to model output.
const (
	PolicyLenient = "lenient"
	PolicyFilter  = "filter"
	PolicyStrict  = "strict"
)

// Config holds all configuration for our application
type Config struct {
	Port        string `yaml:"port"`
	Origin      string `yaml:"origin"`
	Environment string `yaml:"environment"`
	LogFilePath string `yaml:"log_file_path"`

	LLM      LLMConfig      `yaml:"llm"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`

	RedisURL     string `yaml:"redis_url"`
	EvalSchedule string `yaml:"eval_schedule"`
}

// LLMConfig holds provider connection details
type LLMConfig struct {
	Provider       string  `yaml:"provider"`
	APIKey         string  `yaml:"api_key"`
	AnthropicKey   string  `yaml:"anthropic_api_key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	Temperature    float32 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	RequestTimeout int     `yaml:"request_timeout_seconds"`
	HTTPTimeout    int     `yaml:"http_timeout_seconds"`
	Referer        string  `yaml:"referer"`
	Title          string  `yaml:"title"`
}

// AnalysisConfig controls result validation, fallback and history
type AnalysisConfig struct {
	ConditionPolicy string `yaml:"condition_policy"`
	FallbackEnabled bool   `yaml:"fallback_enabled"`
	HistoryLimit    int    `yaml:"history_limit"`
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AuthConfig holds token settings
type AuthConfig struct {
	JWTSecret            string `yaml:"jwt_secret"`
	JWTExpirationMinutes int    `yaml:"jwt_expiration_minutes"`
	RefreshTTLHours      int    `yaml:"refresh_ttl_hours"`
}

// RequestTimeoutDuration is the deadline applied to a single analysis call.
func (c LLMConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// HTTPTimeoutDuration is the outer deadline of the provider HTTP client.
func (c LLMConfig) HTTPTimeoutDuration() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

// APIKeyFor returns the credential for the configured provider.
func (c LLMConfig) APIKeyFor() string {
	if c.Provider == "anthropic" {
		return c.AnthropicKey
	}
	return c.APIKey
}

const (
	defaultModel          = "openai/gpt-4.1-nano"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultBaseURL        = "https://openrouter.ai/api/v1"
)

func defaults() *Config {
	return &Config{
		Port:        "5001",
		Origin:      "*",
		Environment: "development",
		LLM: LLMConfig{
			Provider:       "openrouter",
			BaseURL:        defaultBaseURL,
			Model:          defaultModel,
			Temperature:    0.2,
			MaxTokens:      1024,
			RequestTimeout: 30,
			HTTPTimeout:    60,
			Referer:        "http://localhost:5001",
			Title:          "HealthAssistAI",
		},
		Analysis: AnalysisConfig{
			ConditionPolicy: PolicyLenient,
			FallbackEnabled: true,
			HistoryLimit:    20,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "symptom_checker.db",
		},
		Auth: AuthConfig{
			JWTSecret:            "default_jwt_secret",
			JWTExpirationMinutes: 15,
			RefreshTTLHours:      168,
		},
	}
}

// LoadConfig loads defaults, then an optional YAML file, then environment variables
func LoadConfig() (*Config, error) {
	cfg := defaults()

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Origin = getEnv("ORIGIN", cfg.Origin)
	cfg.Environment = getEnv("ENVIRONMENT", getEnv("NODE_ENV", cfg.Environment))
	cfg.LogFilePath = getEnv("LOG_FILE_PATH", cfg.LogFilePath)

	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.APIKey = getEnv("OPENROUTER_API_KEY", getEnv("OPENROUTER_KEY", cfg.LLM.APIKey))
	cfg.LLM.AnthropicKey = getEnv("ANTHROPIC_API_KEY", cfg.LLM.AnthropicKey)
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	if cfg.LLM.Provider == "anthropic" && cfg.LLM.Model == defaultModel {
		cfg.LLM.Model = defaultAnthropicModel
		if cfg.LLM.BaseURL == defaultBaseURL {
			cfg.LLM.BaseURL = ""
		}
	}
	cfg.LLM.Referer = getEnv("LLM_REFERER", cfg.LLM.Referer)
	cfg.LLM.Title = getEnv("LLM_TITLE", cfg.LLM.Title)

	cfg.Analysis.ConditionPolicy = getEnv("ANALYSIS_CONDITION_POLICY", cfg.Analysis.ConditionPolicy)
	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DB_DSN", cfg.Database.DSN)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.EvalSchedule = getEnv("EVAL_SCHEDULE", cfg.EvalSchedule)

	var err error
	if cfg.LLM.Temperature, err = getEnvAsFloat32("LLM_TEMPERATURE", cfg.LLM.Temperature); err != nil {
		return nil, err
	}
	ints := []struct {
		key   string
		field *int
	}{
		{"LLM_MAX_TOKENS", &cfg.LLM.MaxTokens},
		{"LLM_REQUEST_TIMEOUT_SECONDS", &cfg.LLM.RequestTimeout},
		{"LLM_HTTP_TIMEOUT_SECONDS", &cfg.LLM.HTTPTimeout},
		{"HISTORY_LIMIT", &cfg.Analysis.HistoryLimit},
		{"JWT_EXPIRATION_MINUTES", &cfg.Auth.JWTExpirationMinutes},
		{"REFRESH_TOKEN_TTL_HOURS", &cfg.Auth.RefreshTTLHours},
	}
	for _, f := range ints {
		if *f.field, err = getEnvAsInt(f.key, *f.field); err != nil {
			return nil, err
		}
	}
	if cfg.Analysis.FallbackEnabled, err = getEnvAsBool("FALLBACK_ENABLED", cfg.Analysis.FallbackEnabled); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Analysis.ConditionPolicy {
	case PolicyLenient, PolicyFilter, PolicyStrict:
	default:
		return fmt.Errorf("invalid ANALYSIS_CONDITION_POLICY %q: must be lenient, filter or strict", c.Analysis.ConditionPolicy)
	}
	switch c.LLM.Provider {
	case "openrouter", "anthropic":
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q: must be openrouter or anthropic", c.LLM.Provider)
	}
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q", c.Database.Driver)
	}
	if c.Analysis.HistoryLimit < 1 {
		return fmt.Errorf("invalid HISTORY_LIMIT %d: must be >= 1", c.Analysis.HistoryLimit)
	}
	if c.LLM.RequestTimeout < 1 || c.LLM.HTTPTimeout < 1 {
		return fmt.Errorf("LLM timeouts must be >= 1 second")
	}
	return nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvAsFloat32(key string, defaultValue float32) (float32, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return float32(f), nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
