// Optimus Echo Predictor - risk prediction for human-robot collaboration
package main

import (
	"context"
	"os"

	"github.com/optimusecho/predictor/internal/config"
	"github.com/optimusecho/predictor/internal/logging"
	"github.com/optimusecho/predictor/internal/server"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("info", "text")
		fallback.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	logger.Info("starting optimus echo predictor",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)

	logger.Info("configuration loaded",
		"env", cfg.Env,
		"scoring_backend", cfg.ScoringBackend,
		"gesture_buffer_size", cfg.GestureBufferSize,
	)

	// Create and run server
	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
