package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Application base URL (used for the Google Sign-In login_uri)
	BaseURL string

	// Browser origins allowed to call the JSON API with credentials
	AllowedOrigins []string

	// Google Identity Services client ID. When set, ID tokens whose
	// audience does not include it are rejected.
	GoogleClientID string

	// Session Configuration
	SessionStore string // "memory" or "redis"
	SessionTTL   time.Duration
	RedisURL     string

	// AI Provider Configuration
	AIProvider       string // "gemini", "anthropic" or "mock"
	GoogleAPIKey     string
	GeminiModel      string
	AnthropicAPIKey  string
	AnthropicModel   string
	AIRequestTimeout time.Duration

	// SMTP relay. Credentials come from the organizer on every send.
	SMTPHost    string
	SMTPPort    int
	SMTPTimeout time.Duration

	// Error reporting
	SentryDSN string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 3030),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		BaseURL:        getEnv("BASE_URL", "http://localhost:3030"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		SessionStore: getEnv("SESSION_STORE", "memory"),
		SessionTTL:   getEnvDuration("SESSION_TTL", 24*time.Hour),
		RedisURL:     getEnv("REDIS_URL", ""),

		AIProvider:       getEnv("AI_PROVIDER", defaultAIProvider()),
		GoogleAPIKey:     getEnv("GOOGLE_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		AIRequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 60*time.Second),

		// Gmail submission port with STARTTLS
		SMTPHost:    getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:    getEnvInt("SMTP_PORT", 587),
		SMTPTimeout: getEnvDuration("SMTP_TIMEOUT", 30*time.Second),

		SentryDSN: getEnv("SENTRY_DSN", ""),

		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultAIProvider picks Gemini whenever a Google API key is configured.
// The mock provider is only the default for keyless local runs.
func defaultAIProvider() string {
	if getEnv("GOOGLE_API_KEY", "") != "" {
		return "gemini"
	}
	return "mock"
}

// Validate checks provider selections and the settings they depend on.
func (c *Config) Validate() error {
	switch c.SessionStore {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_STORE is 'redis'")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be either 'memory' or 'redis', got: %s", c.SessionStore)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got: %s", c.SessionTTL)
	}

	switch c.AIProvider {
	case "gemini":
		if c.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required when AI_PROVIDER is 'gemini'")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is 'anthropic'")
		}
	case "mock":
	default:
		return fmt.Errorf("AI_PROVIDER must be one of 'gemini', 'anthropic' or 'mock', got: %s", c.AIProvider)
	}

	if c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTP_PORT must be a valid port, got: %d", c.SMTPPort)
	}

	return nil
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList parses a comma-separated variable, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
