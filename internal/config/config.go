package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	BillingMode    string
	BillingBaseURL string
	BillingAPIKey  string
	BillingTimeout time.Duration

	UpstreamMaxAttempts   int
	UpstreamBackoff       time.Duration
	BreakerMinRequests    int
	BreakerFailureRatio   float64
	BreakerOpenFor        time.Duration
	RateLimitPerMinute    int
	CacheTTL              time.Duration
	UsageCacheTTL         time.Duration
	UsageDefaultRangeDays int

	RefreshInterval    time.Duration
	RefreshMaxAttempts int

	LogFormat string
	LogLevel  string

	TracingEnabled  bool
	TracingEndpoint string
	TracingSampling float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		BillingMode:    valueOrDefault(strings.ToLower(strings.TrimSpace(k.String("BILLING_MODE"))), "http"),
		BillingBaseURL: strings.TrimRight(strings.TrimSpace(k.String("BILLING_BASE_URL")), "/"),
		BillingAPIKey:  k.String("BILLING_API_KEY"),
		BillingTimeout: parseDuration(k.String("BILLING_TIMEOUT"), "10s"),

		UpstreamMaxAttempts:   intOrDefault(k.Int("UPSTREAM_MAX_ATTEMPTS"), 3),
		UpstreamBackoff:       parseDuration(k.String("UPSTREAM_BACKOFF"), "200ms"),
		BreakerMinRequests:    intOrDefault(k.Int("BREAKER_MIN_REQUESTS"), 10),
		BreakerFailureRatio:   floatOrDefault(k.Float64("BREAKER_FAILURE_RATIO"), 0.5),
		BreakerOpenFor:        parseDuration(k.String("BREAKER_OPEN_FOR"), "30s"),
		RateLimitPerMinute:    intOrDefault(k.Int("RATE_LIMIT_PER_MINUTE"), 120),
		CacheTTL:              parseDuration(k.String("CACHE_TTL"), "5m"),
		UsageCacheTTL:         parseDuration(k.String("USAGE_CACHE_TTL"), "10m"),
		UsageDefaultRangeDays: intOrDefault(k.Int("USAGE_DEFAULT_RANGE_DAYS"), 30),

		RefreshInterval:    parseDuration(k.String("REFRESH_INTERVAL"), "15m"),
		RefreshMaxAttempts: intOrDefault(k.Int("REFRESH_MAX_ATTEMPTS"), 5),

		LogFormat: valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:  valueOrDefault(k.String("LOG_LEVEL"), "info"),

		TracingEnabled:  parseBool(k.String("TRACING_ENABLED")),
		TracingEndpoint: strings.TrimSpace(k.String("TRACING_ENDPOINT")),
		TracingSampling: floatOrDefault(k.Float64("TRACING_SAMPLING"), 1),
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.BillingMode != "mock" {
		if cfg.BillingBaseURL == "" {
			return nil, errors.New("BILLING_BASE_URL is required")
		}
		if cfg.BillingAPIKey == "" {
			return nil, errors.New("BILLING_API_KEY is required")
		}
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func floatOrDefault(value, fallback float64) float64 {
	if value > 0 {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
