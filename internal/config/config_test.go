package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/practice-platform/internal/repository/sqlstore"
)

var keys = []string{
	"PORT", "DB_DRIVER", "DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL",
	"SEED_CATALOG", "EXECUTION_BACKEND", "EXECUTION_TIMEOUT", "MAX_OUTPUT_SIZE", "MAX_CODE_SIZE",
	"MAX_TEST_CASES", "MAX_REQUEST_BODY", "MAX_CONCURRENT_RUNS", "TEMP_DIR", "SCRATCH_RETENTION",
	"SWEEP_INTERVAL", "DOCKER_IMAGE", "DOCKER_POOL_SIZE", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
	"APP_VERSION",
}

// clearEnv blanks every variable Load reads; an empty value counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, sqlstore.DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "data/practice.db", cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.SeedCatalog)
	assert.Equal(t, BackendProcess, cfg.ExecutionBackend)
	assert.Equal(t, 5*time.Second, cfg.ExecutionTimeout)
	assert.Equal(t, 10000, cfg.MaxOutputSize)
	assert.Equal(t, 100000, cfg.MaxCodeSize)
	assert.Equal(t, 20, cfg.MaxTestCases)
	assert.Equal(t, int64(1<<20), cfg.MaxRequestBody)
	assert.Equal(t, 4, cfg.MaxConcurrentRuns)
	assert.Contains(t, cfg.TempDir, "code_execution")
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "dev", cfg.Version)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/practice")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("SEED_CATALOG", "false")
	t.Setenv("EXECUTION_BACKEND", "Docker")
	t.Setenv("EXECUTION_TIMEOUT", "2500")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, sqlstore.DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.False(t, cfg.SeedCatalog)
	assert.Equal(t, BackendDocker, cfg.ExecutionBackend)
	assert.Equal(t, 2500*time.Millisecond, cfg.ExecutionTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.NotNil(t, cfg.Logger())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PORT", "eighty"},
		{"PORT", "0"},
		{"DB_DRIVER", "mysql"},
		{"EXECUTION_BACKEND", "kubernetes"},
		{"EXECUTION_TIMEOUT", "-1"},
		{"MAX_TEST_CASES", "0"},
		{"MAX_CONCURRENT_RUNS", "many"},
		{"CACHE_TTL", "5"},
		{"SEED_CATALOG", "maybe"},
		{"LOG_LEVEL", "verbose"},
		{"LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadReportsEveryError(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "x")
	t.Setenv("MAX_CODE_SIZE", "y")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "MAX_CODE_SIZE")
}
