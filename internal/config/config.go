// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/api and cmd/regen.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Error reports a missing or malformed setting. It is fatal at startup.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration
	DBTimeout      time.Duration

	// Advisory locks are held on their own pool so a holder never waits on
	// the connections its locked work needs.
	DBLockPoolMaxConns int

	// Per-group lock acquisition bound
	LockTimeout time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	LogLevel    string

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool

	// Drift audit; a zero interval disables it
	AuditInterval time.Duration
	AuditWorkers  int
}

// Load reads configuration from environment variables with sensible defaults.
// Every problem found is reported, joined into one error.
func Load() (*Config, error) {
	var l loader

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBPoolMinConns: l.envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: l.envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(l.envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		DBTimeout:      time.Duration(l.envInt("DB_TIMEOUT_SECONDS", 10)) * time.Second,
		LockTimeout:    time.Duration(l.envInt("LOCK_TIMEOUT_SECONDS", 30)) * time.Second,

		DBLockPoolMaxConns: l.envInt("DB_LOCK_POOL_MAX_CONNS", 8),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     l.envInt("API_PORT", l.envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    envOr("LOG_LEVEL", "info"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  l.envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: l.envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(l.envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: l.envBool("CACHE_ENABLED", true),

		AuditInterval: time.Duration(l.envInt("AUDIT_INTERVAL_MINUTES", 0)) * time.Minute,
		AuditWorkers:  l.envInt("AUDIT_WORKERS", 4),
	}

	if cfg.DatabaseURL == "" {
		l.fail("DATABASE_URL", "must be set")
	}
	if cfg.DBPoolMinConns < 0 || cfg.DBPoolMaxConns < 1 || cfg.DBPoolMinConns > cfg.DBPoolMaxConns {
		l.fail("DB_POOL_MAX_CONNS", fmt.Sprintf("pool bounds %d..%d are invalid", cfg.DBPoolMinConns, cfg.DBPoolMaxConns))
	}
	if cfg.DBLockPoolMaxConns < 1 {
		l.fail("DB_LOCK_POOL_MAX_CONNS", "must be at least 1")
	}
	if cfg.DBTimeout <= 0 {
		l.fail("DB_TIMEOUT_SECONDS", "must be positive")
	}
	if cfg.LockTimeout <= 0 {
		l.fail("LOCK_TIMEOUT_SECONDS", "must be positive")
	}
	if cfg.APIPort < 1 || cfg.APIPort > 65535 {
		l.fail("API_PORT", fmt.Sprintf("%d is not a valid port", cfg.APIPort))
	}
	if cfg.AuditWorkers < 1 {
		l.fail("AUDIT_WORKERS", "must be at least 1")
	}
	// Each audit worker holds one lock connection for its whole group.
	if cfg.AuditWorkers > cfg.DBLockPoolMaxConns && cfg.DBLockPoolMaxConns >= 1 {
		l.fail("AUDIT_WORKERS", fmt.Sprintf("%d workers exceed DB_LOCK_POOL_MAX_CONNS (%d)", cfg.AuditWorkers, cfg.DBLockPoolMaxConns))
	}

	if len(l.errs) > 0 {
		return nil, errors.Join(l.errs...)
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

type loader struct {
	errs []error
}

func (l *loader) fail(key, reason string) {
	l.errs = append(l.errs, &Error{Key: key, Reason: reason})
}

func (l *loader) envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.fail(key, fmt.Sprintf("%q is not an integer", v))
		return fallback
	}
	return n
}

func (l *loader) envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.fail(key, fmt.Sprintf("%q is not a boolean", v))
		return fallback
	}
	return b
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
