package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Database configuration
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Language model configuration
	LLMProvider     string // "openai" or "anthropic"
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	LLMTimeout      time.Duration
	LLMMaxTokens    int
	LLMTemperature  float64

	// Analysis configuration
	AnalysisConcurrency int
	AnalysisTimeout     time.Duration
	AnalysisSchedule    string // six-field cron expression
	HistoryLimit        int
	CronSecret          string

	// Cache configuration
	RedisURL string
	CacheTTL time.Duration

	// Azure Storage configuration
	StorageAccount       string
	StorageContainer     string
	ArchiveRetentionDays int

	// Notification configuration
	TeamsWebhookURL         string
	NotificationEmail       string
	SMTPHost                string
	SMTPPort                int
	SMTPUsername            string
	SMTPPassword            string
	VisibilityDropThreshold float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		LLMTimeout:      getDurationEnv("LLM_TIMEOUT", 45*time.Second),
		LLMMaxTokens:    getIntEnv("LLM_MAX_TOKENS", 500),
		LLMTemperature:  getFloatEnv("LLM_TEMPERATURE", 0.7),

		AnalysisConcurrency: getIntEnv("ANALYSIS_CONCURRENCY", 4),
		AnalysisTimeout:     getDurationEnv("ANALYSIS_TIMEOUT", 15*time.Minute),
		AnalysisSchedule:    getEnv("ANALYSIS_SCHEDULE", "0 0 6 * * *"),
		HistoryLimit:        getIntEnv("HISTORY_LIMIT", 30),
		CronSecret:          getEnv("CRON_SECRET", ""),

		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getDurationEnv("CACHE_TTL", 5*time.Minute),

		StorageAccount:       getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer:     getEnv("AZURE_STORAGE_CONTAINER", "analysis-runs"),
		ArchiveRetentionDays: getIntEnv("ARCHIVE_RETENTION_DAYS", 90),

		TeamsWebhookURL:         getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail:       getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                getIntEnv("SMTP_PORT", 587),
		SMTPUsername:            getEnv("SMTP_USERNAME", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		VisibilityDropThreshold: getFloatEnv("VISIBILITY_DROP_THRESHOLD", 10),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER is 'openai'")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER is 'anthropic'")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be 'openai' or 'anthropic'")
	}

	if c.AnalysisConcurrency < 1 {
		return fmt.Errorf("ANALYSIS_CONCURRENCY must be at least 1")
	}

	if c.LLMTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT and ANALYSIS_TIMEOUT must be positive")
	}

	if c.HistoryLimit < 1 {
		return fmt.Errorf("HISTORY_LIMIT must be at least 1")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// NotificationsEnabled reports whether any notification channel is configured
func (c *Config) NotificationsEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
