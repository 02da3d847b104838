// Package config loads the console's configuration from environment
// variables. No other package reads the environment directly. Defaults are
// chosen so `go run ./cmd/server` works against a local backend and Redis.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full console configuration, built once at startup and
// passed down explicitly.
type Config struct {
	// Env is "development" or "production".
	Env string

	// Port is the HTTP listen port.
	Port int

	// BaseURL is the public URL of the console, used in links.
	BaseURL string

	// TrustedProxies lists the CIDRs of reverse proxies whose
	// X-Forwarded-For header is believed. Empty means none.
	TrustedProxies []string

	// LogLevel is "debug", "info", "warn" or "error". Empty means the
	// environment default.
	LogLevel string

	Backend   BackendConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Itinerary ItineraryConfig
}

// BackendConfig points at the REST backend that owns all business data.
type BackendConfig struct {
	// URL is the API root, e.g. "http://localhost:3001/api".
	URL string

	// Timeout bounds every backend request.
	Timeout time.Duration
}

// RedisConfig holds the Redis connection URL.
type RedisConfig struct {
	URL string
}

// AuthConfig holds console session settings.
type AuthConfig struct {
	// SecretKey seeds the key that seals backend tokens stored in Redis.
	SecretKey string

	// SessionTTL caps a console session. A backend token that expires
	// earlier shortens the session to match.
	SessionTTL time.Duration

	// LoginRateLimit is the number of login attempts allowed per IP per minute.
	LoginRateLimit int
}

// ItineraryConfig holds settings for the itinerary editor.
type ItineraryConfig struct {
	// DraftTTL is how long an unsaved editing session survives in Redis.
	DraftTTL time.Duration
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		Backend: BackendConfig{
			URL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:3001/api"), "/"),
			Timeout: getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SecretKey:      getEnv("SECRET_KEY", ""),
			SessionTTL:     getEnvDuration("SESSION_TTL", 12*time.Hour),
			LoginRateLimit: getEnvInt("LOGIN_RATE_LIMIT", 10),
		},

		Itinerary: ItineraryConfig{
			DraftTTL: getEnvDuration("DRAFT_TTL", 2*time.Hour),
		},
	}

	if _, err := url.ParseRequestURI(cfg.Backend.URL); err != nil {
		return nil, fmt.Errorf("BACKEND_URL is not a valid URL: %w", err)
	}

	if cfg.IsProduction() {
		if cfg.Auth.SecretKey == "" {
			return nil, fmt.Errorf("SECRET_KEY is required in production")
		}
		if len(cfg.Auth.SecretKey) < 32 {
			return nil, fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
		}
	}
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-only-secret-key-never-use-in-production"
	}

	return cfg, nil
}

// IsDevelopment reports whether the console runs in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction reports whether the console runs in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated list, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvDuration reads a Go duration string such as "90m".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
