// Package config reads server configuration from the environment.
//
// A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/practice-platform/internal/repository/sqlstore"
)

// Backend selects how submissions are executed.
type Backend string

const (
	BackendProcess Backend = "process"
	BackendDocker  Backend = "docker"
)

type Config struct {
	Port int

	DBDriver    sqlstore.Driver
	DatabaseURL string

	// RedisAddr enables the catalog cache when non-empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	SeedCatalog bool

	ExecutionBackend  Backend
	ExecutionTimeout  time.Duration
	MaxOutputSize     int
	MaxCodeSize       int
	MaxTestCases      int
	MaxRequestBody    int64
	MaxConcurrentRuns int

	TempDir          string
	ScratchRetention time.Duration
	SweepInterval    time.Duration

	DockerImage    string
	DockerPoolSize int

	CORSAllowedOrigins []string

	LogLevel  slog.Level
	LogFormat string

	// Version is reported by /api/health.
	Version string
}

// Load reads .env (if any) and the environment. Every invalid variable is
// reported, not just the first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var p parser
	cfg := &Config{
		Port:               p.getInt("PORT", 8080),
		DatabaseURL:        getEnv("DATABASE_URL", "data/practice.db"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            p.getInt("REDIS_DB", 0),
		CacheTTL:           p.getDuration("CACHE_TTL", 5*time.Minute),
		SeedCatalog:        p.getBool("SEED_CATALOG", true),
		ExecutionTimeout:   time.Duration(p.getInt("EXECUTION_TIMEOUT", 5000)) * time.Millisecond,
		MaxOutputSize:      p.getInt("MAX_OUTPUT_SIZE", 10000),
		MaxCodeSize:        p.getInt("MAX_CODE_SIZE", 100000),
		MaxTestCases:       p.getInt("MAX_TEST_CASES", 20),
		MaxRequestBody:     int64(p.getInt("MAX_REQUEST_BODY", 1<<20)),
		MaxConcurrentRuns:  p.getInt("MAX_CONCURRENT_RUNS", 4),
		TempDir:            getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "code_execution")),
		ScratchRetention:   p.getDuration("SCRATCH_RETENTION", 10*time.Minute),
		SweepInterval:      p.getDuration("SWEEP_INTERVAL", time.Minute),
		DockerImage:        getEnv("DOCKER_IMAGE", "practice-runner:latest"),
		DockerPoolSize:     p.getInt("DOCKER_POOL_SIZE", 3),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		Version:            getEnv("APP_VERSION", "dev"),
	}

	driver, err := sqlstore.ParseDriver(getEnv("DB_DRIVER", string(sqlstore.DriverSQLite)))
	p.check("DB_DRIVER", err)
	cfg.DBDriver = driver

	switch b := Backend(strings.ToLower(getEnv("EXECUTION_BACKEND", string(BackendProcess)))); b {
	case BackendProcess, BackendDocker:
		cfg.ExecutionBackend = b
	default:
		p.fail("EXECUTION_BACKEND", fmt.Errorf("unknown backend %q", b))
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		p.fail("LOG_LEVEL", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		p.fail("LOG_FORMAT", fmt.Errorf("must be text or json, got %q", cfg.LogFormat))
	}

	p.positive("PORT", int64(cfg.Port))
	p.positive("EXECUTION_TIMEOUT", int64(cfg.ExecutionTimeout))
	p.positive("MAX_OUTPUT_SIZE", int64(cfg.MaxOutputSize))
	p.positive("MAX_CODE_SIZE", int64(cfg.MaxCodeSize))
	p.positive("MAX_TEST_CASES", int64(cfg.MaxTestCases))
	p.positive("MAX_REQUEST_BODY", cfg.MaxRequestBody)
	p.positive("MAX_CONCURRENT_RUNS", int64(cfg.MaxConcurrentRuns))
	p.positive("CACHE_TTL", int64(cfg.CacheTTL))
	p.positive("SCRATCH_RETENTION", int64(cfg.ScratchRetention))
	p.positive("SWEEP_INTERVAL", int64(cfg.SweepInterval))
	p.positive("DOCKER_POOL_SIZE", int64(cfg.DockerPoolSize))

	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Logger builds the process logger described by LogLevel and LogFormat.
func (c *Config) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// parser accumulates errors so Load can report all bad variables at once.
type parser struct {
	errs []error
}

func (p *parser) fail(key string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
}

func (p *parser) check(key string, err error) {
	if err != nil {
		p.fail(key, err)
	}
}

func (p *parser) getInt(key string, fallback int) int {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.fail(key, fmt.Errorf("not an integer: %q", s))
		return fallback
	}
	return v
}

func (p *parser) getBool(key string, fallback bool) bool {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(key, fmt.Errorf("not a boolean: %q", s))
		return fallback
	}
	return v
}

// getDuration accepts Go duration strings ("90s", "5m").
func (p *parser) getDuration(key string, fallback time.Duration) time.Duration {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		p.fail(key, fmt.Errorf("not a duration: %q", s))
		return fallback
	}
	return v
}

func (p *parser) positive(key string, v int64) {
	if v <= 0 {
		p.fail(key, errors.New("must be positive"))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
