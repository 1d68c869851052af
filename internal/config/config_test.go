package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/matchplay")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/matchplay", cfg.DatabaseURL)
	assert.Equal(t, 2, cfg.DBPoolMinConns)
	assert.Equal(t, 10, cfg.DBPoolMaxConns)
	assert.Equal(t, 8, cfg.DBLockPoolMaxConns)
	assert.Equal(t, 10*time.Second, cfg.DBTimeout)
	assert.Equal(t, 30*time.Second, cfg.LockTimeout)
	assert.Equal(t, 8000, cfg.APIPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.CacheEnabled)
	assert.Zero(t, cfg.AuditInterval)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/matchplay")
	t.Setenv("LOCK_TIMEOUT_SECONDS", "5")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("AUDIT_INTERVAL_MINUTES", "15")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 15*time.Minute, cfg.AuditInterval)
	assert.True(t, cfg.IsProduction())
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "DATABASE_URL", cfgErr.Key)
}

func TestLoadReportsEveryProblem(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("API_PORT", "eighty")
	t.Setenv("CACHE_ENABLED", "maybe")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "API_PORT")
	assert.Contains(t, err.Error(), "CACHE_ENABLED")
}

func TestLoadRejectsInvertedPool(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/matchplay")
	t.Setenv("DB_POOL_MIN_CONNS", "20")
	t.Setenv("DB_POOL_MAX_CONNS", "5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_POOL_MAX_CONNS")
}

func TestLoadLockPoolBounds(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantKey string
	}{
		{
			name:    "empty lock pool",
			env:     map[string]string{"DB_LOCK_POOL_MAX_CONNS": "0"},
			wantKey: "DB_LOCK_POOL_MAX_CONNS",
		},
		{
			name:    "more audit workers than lock connections",
			env:     map[string]string{"DB_LOCK_POOL_MAX_CONNS": "2", "AUDIT_WORKERS": "3"},
			wantKey: "AUDIT_WORKERS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/matchplay")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantKey, cfgErr.Key)
		})
	}
}

func TestLoadAuditWorkersWithinLockPool(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/matchplay")
	t.Setenv("DB_LOCK_POOL_MAX_CONNS", "3")
	t.Setenv("AUDIT_WORKERS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.DBLockPoolMaxConns)
	assert.Equal(t, 3, cfg.AuditWorkers)
}
