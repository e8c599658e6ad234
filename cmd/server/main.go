// Package main is the entry point for the practice platform API server.
//
// main stays minimal: read configuration, build the logger, hand both to
// server.New and block in Start. All real work lives under internal/.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/practice-platform/internal/config"
	"github.com/sakif/practice-platform/internal/server"
)

// version is overridden at build time:
//
//	go build -ldflags "-X main.version=1.4.0" ./cmd/server
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.Version == "dev" {
		cfg.Version = version
	}

	logger := cfg.Logger()
	slog.SetDefault(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
