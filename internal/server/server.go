// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: New opens every resource the process owns
// (database pool, optional redis client, execution backend, scratch sweeper)
// and wires them into services and handlers. Nothing below this package
// reaches for a global; everything is passed in. Start serves until SIGINT or
// SIGTERM and then releases the resources in reverse order.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/practice-platform/internal/config"
	"github.com/sakif/practice-platform/internal/executor"
	"github.com/sakif/practice-platform/internal/executor/docker"
	"github.com/sakif/practice-platform/internal/executor/process"
	"github.com/sakif/practice-platform/internal/handler"
	"github.com/sakif/practice-platform/internal/middleware"
	"github.com/sakif/practice-platform/internal/repository"
	"github.com/sakif/practice-platform/internal/repository/rediscache"
	"github.com/sakif/practice-platform/internal/repository/sqlstore"
	"github.com/sakif/practice-platform/internal/seed"
	"github.com/sakif/practice-platform/internal/service"
)

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger

	store   *sqlstore.Store
	repo    repository.ProblemRepository
	exec    executor.Executor
	sweeper *executor.Sweeper

	// closers release resources in reverse order of acquisition.
	closers   []func() error
	closeOnce sync.Once
}

// New opens the database (seeding it when configured), the optional redis
// cache and the execution backend, then builds the router. Anything already
// opened is released if a later step fails.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.openStore(ctx); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.buildExecutor(); err != nil {
		s.Close()
		return nil, err
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) openStore(ctx context.Context) error {
	store, err := sqlstore.New(ctx, s.config.DBDriver, s.config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	s.store = store
	s.repo = store
	s.closers = append(s.closers, store.Close)

	if s.config.SeedCatalog {
		if err := seed.Load(ctx, store, s.logger); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
	}

	if s.config.RedisAddr == "" {
		return nil
	}
	client, err := rediscache.Connect(ctx, s.config.RedisAddr, s.config.RedisPassword, s.config.RedisDB)
	if err != nil {
		// The cache is an optimisation; serve straight from the database.
		s.logger.Warn("redis unavailable, catalog cache disabled",
			slog.String("addr", s.config.RedisAddr),
			slog.String("error", err.Error()),
		)
		return nil
	}
	s.closers = append(s.closers, client.Close)

	cache := rediscache.New(store, client, s.config.CacheTTL, s.logger)
	if err := cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", slog.String("error", err.Error()))
	}
	s.repo = cache
	return nil
}

func (s *Server) buildExecutor() error {
	scratch, err := executor.NewScratch(s.config.TempDir, 0o700)
	if err != nil {
		return fmt.Errorf("creating scratch root: %w", err)
	}

	var backend executor.Backend
	switch s.config.ExecutionBackend {
	case config.BackendDocker:
		dc := docker.DefaultConfig()
		dc.Image = s.config.DockerImage
		dc.PoolSize = s.config.DockerPoolSize
		b, err := docker.New(dc, s.logger)
		if err != nil {
			return fmt.Errorf("starting docker backend: %w", err)
		}
		s.closers = append(s.closers, b.Close)
		backend = b
	default:
		s.logger.Warn("using the local process backend; submissions run without isolation")
		backend = process.New()
	}

	sandbox := executor.NewSandbox(backend, scratch, executor.Config{
		Timeout:   s.config.ExecutionTimeout,
		MaxOutput: s.config.MaxOutputSize,
	}, s.logger)
	s.exec = executor.NewLimited(sandbox, s.config.MaxConcurrentRuns, s.config.ExecutionTimeout+runOverhead)

	s.sweeper = executor.NewSweeper(scratch, s.config.ScratchRetention, s.config.SweepInterval, s.logger)
	s.sweeper.Start()
	s.closers = append(s.closers, func() error {
		s.sweeper.Stop()
		return nil
	})

	s.logger.Info("executor ready",
		slog.String("backend", string(s.config.ExecutionBackend)),
		slog.String("scratch", scratch.Root()),
		slog.Int("max_concurrent_runs", s.config.MaxConcurrentRuns),
	)
	return nil
}

// setupRoutes configures middleware and routes.
//
//	GET  /api/health
//	GET  /api/problems                 ?category=&difficulty=&search=
//	GET  /api/problems/{slug}
//	GET  /api/categories
//	POST /api/execute                  language from the body
//	POST /api/execute-{lang}
//	POST /api/problems/{slug}/submit
//
// Middleware runs in the order it is added.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	problemService := service.NewProblemService(s.repo, s.logger)
	executionService := service.NewExecutionService(s.exec, s.repo, service.Limits{
		MaxCodeSize:    s.config.MaxCodeSize,
		MaxTestCases:   s.config.MaxTestCases,
		Parallelism:    s.config.MaxConcurrentRuns,
		RequestTimeout: s.requestBudget(),
	}, s.logger)

	healthHandler := handler.NewHealthHandler(s.store, s.config.Version, s.logger)
	problemHandler := handler.NewProblemHandler(problemService, s.logger)
	executeHandler := handler.NewExecuteHandler(executionService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HandleHealth)
		r.Get("/problems", problemHandler.HandleList)
		r.Get("/problems/{slug}", problemHandler.HandleGet)
		r.Get("/categories", problemHandler.HandleCategories)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.RequestSize(s.config.MaxRequestBody))
			r.Post("/execute", executeHandler.HandleExecute)
			r.Post("/execute-{lang}", executeHandler.HandleExecute)
			r.Post("/problems/{slug}/submit", executeHandler.HandleSubmit)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases every resource New acquired. It is safe to call more than once.
func (s *Server) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		for i := len(s.closers) - 1; i >= 0; i-- {
			if err := s.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// runOverhead covers what a run spends outside the execution timeout:
// scratch files, container hand-off and cleanup.
const runOverhead = 2 * time.Second

// requestBudget is how long one execution request may take, waiting for
// runners included. An idle server fits a request whose test cases all run
// to the execution timeout, MaxConcurrentRuns at a time.
func (s *Server) requestBudget() time.Duration {
	rounds := (s.config.MaxTestCases + s.config.MaxConcurrentRuns - 1) / s.config.MaxConcurrentRuns
	return 10*time.Second + time.Duration(rounds)*(s.config.ExecutionTimeout+runOverhead)
}

// writeTimeout outlasts requestBudget so a shed request still gets its 503.
func (s *Server) writeTimeout() time.Duration {
	return s.requestBudget() + 5*time.Second
}

// Start serves HTTP until SIGINT/SIGTERM, drains in-flight requests for up
// to 30 seconds, then closes the executor, cache and database.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("failed to release resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.writeTimeout(),
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", string(s.config.DBDriver)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
