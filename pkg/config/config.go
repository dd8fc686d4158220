package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Anthropic
	AnthropicAPIKey string
	ClaudeModel     string
	ClaudeMaxTokens int
	AnthropicRPM    int

	// News providers
	NewsAPIKey     string
	NewsAPIRPM     int
	GuardianAPIKey string
	MaxArticles    int

	// Telegram
	TelegramToken           string
	TelegramAuthorizedUsers []int64

	// Polymarket API
	GammaURL       string
	ClobURL        string
	PricefeedWSURL string

	// Market metadata cache
	MarketCacheTTL time.Duration

	// Auto-resolution sweep
	ResolverInterval time.Duration

	// Provider circuit breaker
	BreakerThreshold int
	BreakerCooldown  time.Duration

	// Storage
	StorageDriver string // "sqlite" or "postgres"
	SQLitePath    string
	PostgresHost  string
	PostgresPort  string
	PostgresUser  string
	PostgresPass  string
	PostgresDB    string
	PostgresSSL   string

	// Default market categories for /markets without arguments
	DefaultCategories []string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Anthropic defaults
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		ClaudeModel:     getEnvOrDefault("CLAUDE_MODEL", "claude-sonnet-4-5-20250929"),
		ClaudeMaxTokens: getIntOrDefault("CLAUDE_MAX_TOKENS", 4096),
		AnthropicRPM:    getIntOrDefault("ANTHROPIC_RPM", 30),

		// News provider defaults
		NewsAPIKey:     os.Getenv("NEWSAPI_KEY"),
		NewsAPIRPM:     getIntOrDefault("NEWSAPI_RPM", 100),
		GuardianAPIKey: os.Getenv("GUARDIAN_API_KEY"),
		MaxArticles:    getIntOrDefault("MAX_ARTICLES", 15),

		// Telegram defaults
		TelegramToken:           os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAuthorizedUsers: getInt64ListOrDefault("TELEGRAM_AUTHORIZED_USERS", nil),

		// Polymarket API defaults
		GammaURL:       getEnvOrDefault("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		ClobURL:        getEnvOrDefault("POLYMARKET_CLOB_API_URL", "https://clob.polymarket.com"),
		PricefeedWSURL: getEnvOrDefault("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),

		MarketCacheTTL:   getDurationOrDefault("MARKET_CACHE_TTL", 5*time.Minute),
		ResolverInterval: getDurationOrDefault("RESOLVER_INTERVAL", 30*time.Minute),

		BreakerThreshold: getIntOrDefault("BREAKER_THRESHOLD", 3),
		BreakerCooldown:  getDurationOrDefault("BREAKER_COOLDOWN", 5*time.Minute),

		// Storage defaults
		StorageDriver: getEnvOrDefault("STORAGE_DRIVER", "sqlite"),
		SQLitePath:    getEnvOrDefault("SQLITE_PATH", "polyforecast.db"),
		PostgresHost:  getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort:  getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser:  getEnvOrDefault("POSTGRES_USER", "polyforecast"),
		PostgresPass:  getEnvOrDefault("POSTGRES_PASSWORD", "polyforecast"),
		PostgresDB:    getEnvOrDefault("POSTGRES_DB", "polyforecast"),
		PostgresSSL:   getEnvOrDefault("POSTGRES_SSLMODE", "disable"),

		DefaultCategories: getStringListOrDefault("DEFAULT_CATEGORIES", []string{"science", "crypto", "politics"}),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY cannot be empty")
	}

	if c.AnthropicRPM <= 0 {
		return fmt.Errorf("ANTHROPIC_RPM must be positive, got %d", c.AnthropicRPM)
	}

	if c.NewsAPIRPM <= 0 {
		return fmt.Errorf("NEWSAPI_RPM must be positive, got %d", c.NewsAPIRPM)
	}

	if c.MaxArticles <= 0 {
		return fmt.Errorf("MAX_ARTICLES must be positive, got %d", c.MaxArticles)
	}

	if c.StorageDriver != "sqlite" && c.StorageDriver != "postgres" {
		return fmt.Errorf("STORAGE_DRIVER must be 'sqlite' or 'postgres', got %q", c.StorageDriver)
	}

	if c.GammaURL == "" {
		return fmt.Errorf("POLYMARKET_GAMMA_API_URL cannot be empty")
	}

	if c.ClobURL == "" {
		return fmt.Errorf("POLYMARKET_CLOB_API_URL cannot be empty")
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// getInt64ListOrDefault parses a comma-separated list of integer IDs.
// Entries that fail to parse are skipped.
func getInt64ListOrDefault(key string, defaultValue []int64) []int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids
}

func getStringListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, strings.ToLower(part))
		}
	}

	if len(items) == 0 {
		return defaultValue
	}

	return items
}
