package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	DatabaseURL string

	// RedisURL addresses the summary cache backend. An empty value
	// disables the cache and every summary is computed directly.
	RedisURL string

	ListenAddr string

	// SessionCookie is the name of the cookie carrying the signed-in
	// owner's id.
	SessionCookie string

	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string

	// RetentionDays is how long collected events are kept before the
	// retention worker prunes them. 0 disables pruning.
	RetentionDays int

	// KeyCacheTTL bounds how long a validated API key stays resolvable
	// without a key-store lookup. A revoked key can keep authenticating
	// for up to this duration.
	KeyCacheTTL time.Duration

	// SummaryCacheTTL bounds the staleness of cached aggregate summaries.
	SummaryCacheTTL time.Duration
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		DatabaseURL:        os.Getenv("APP_DATABASE_URL"),
		RedisURL:           os.Getenv("APP_REDIS_URL"),
		ListenAddr:         getenv("APP_LISTEN_ADDR", ":8080"),
		SessionCookie:      getenv("APP_SESSION_COOKIE", "ep_session"),
		GoogleClientID:     os.Getenv("APP_GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("APP_GOOGLE_CLIENT_SECRET"),
		OAuthRedirectURL:   getenv("APP_OAUTH_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),
		RetentionDays:      30,
		KeyCacheTTL:        5 * time.Minute,
		SummaryCacheTTL:    5 * time.Minute,
	}

	if v := os.Getenv("APP_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days >= 0 {
			cfg.RetentionDays = days
		}
	}
	if v := os.Getenv("APP_KEY_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.KeyCacheTTL = d
		}
	}
	if v := os.Getenv("APP_SUMMARY_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SummaryCacheTTL = d
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
