// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitPerSecond() float64
	GetRateLimitBurst() int
}

// RedisConfig provides settings for the Redis-backed snapshot cache.
type RedisConfig interface {
	GetRedisURL() string
	GetSnapshotCacheTTL() time.Duration
	IsSnapshotCacheEnabled() bool
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetScoreStalenessWindow() time.Duration
	GetScoreRefreshInterval() time.Duration
}

// ScoringConfig provides settings for the lead scoring engine.
type ScoringConfig interface {
	GetScoringTierScheme() string
	GetScoringProfilePath() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	JWTAccessSecret string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	RedisURL             string
	RedisTLSInsecure     bool
	SnapshotCacheEnabled bool
	SnapshotCacheTTL     time.Duration

	AsynqQueueName       string
	AsynqConcurrency     int
	ScoreStalenessWindow time.Duration
	ScoreRefreshInterval time.Duration

	// ScoringTierScheme selects the quality-tier thresholds: "four_tier" or
	// "five_tier". Both deployments exist, so this stays configurable.
	ScoringTierScheme string
	// ScoringProfilePath optionally points at a YAML file overriding factor
	// weights and tier thresholds.
	ScoringProfilePath string

	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from the environment, with .env file support for
// local development.
func Load() (*Config, error) {
	// Best effort; production relies on real environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: os.Getenv("JWT_ACCESS_SECRET"),

		CORSAllowAll:   getBool("CORS_ALLOW_ALL", true),
		CORSOrigins:    splitCSV(os.Getenv("CORS_ORIGINS")),
		CORSAllowCreds: getBool("CORS_ALLOW_CREDENTIALS", false),

		RedisURL:             os.Getenv("REDIS_URL"),
		RedisTLSInsecure:     getBool("REDIS_TLS_INSECURE", false),
		SnapshotCacheEnabled: getBool("SNAPSHOT_CACHE_ENABLED", true),
		SnapshotCacheTTL:     getDuration("SNAPSHOT_CACHE_TTL", 60*time.Second),

		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     getInt("ASYNQ_CONCURRENCY", 10),
		ScoreStalenessWindow: getDuration("SCORE_STALENESS_WINDOW", 24*time.Hour),
		ScoreRefreshInterval: getDuration("SCORE_REFRESH_INTERVAL", time.Hour),

		ScoringTierScheme:  getEnv("SCORING_TIER_SCHEME", "four_tier"),
		ScoringProfilePath: os.Getenv("SCORING_PROFILE_PATH"),

		RateLimitPerSecond: getFloat("RATE_LIMIT_PER_SECOND", 20),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 40),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string    { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetRateLimitPerSecond() float64 { return c.RateLimitPerSecond }
func (c *Config) GetRateLimitBurst() int         { return c.RateLimitBurst }

func (c *Config) GetRedisURL() string                { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool          { return c.RedisTLSInsecure }
func (c *Config) GetSnapshotCacheTTL() time.Duration { return c.SnapshotCacheTTL }
func (c *Config) IsSnapshotCacheEnabled() bool {
	return c.SnapshotCacheEnabled && c.RedisURL != ""
}

func (c *Config) GetAsynqQueueName() string                { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int                 { return c.AsynqConcurrency }
func (c *Config) GetScoreStalenessWindow() time.Duration   { return c.ScoreStalenessWindow }
func (c *Config) GetScoreRefreshInterval() time.Duration   { return c.ScoreRefreshInterval }

func (c *Config) GetScoringTierScheme() string  { return c.ScoringTierScheme }
func (c *Config) GetScoringProfilePath() string { return c.ScoringProfilePath }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
