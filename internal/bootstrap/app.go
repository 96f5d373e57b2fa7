// Package bootstrap handles application initialization and lifecycle management
// for the geotagger service.
package bootstrap

import (
	"context"
	"fmt"

	infracontext "github.com/jonesrussell/north-cloud/geotagger/infrastructure/context"
	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/profiling"
)

// Start initializes and runs the geotagger HTTP service until it is
// signalled to stop.
func Start(ctx context.Context, configPath string, debug bool) error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if pprofServer := profiling.StartPprofServer(cfg.Profiling, log); pprofServer != nil {
		defer func() { _ = pprofServer.Close() }()
	}

	// Phase 2: Wire the tagging pipeline
	startupCtx, cancel := infracontext.WithStartupTimeout()
	pipeline, err := NewPipeline(startupCtx, cfg, log)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer pipeline.Close()

	// Phase 3: Setup and run HTTP server
	server := SetupHTTPServer(cfg, pipeline, log)

	log.Info("Starting HTTP server",
		logger.Int("port", cfg.Server.Port),
		logger.String("geocoding", cfg.Geocoding.BaseURL),
	)

	if runErr := server.RunWithGracefulShutdown(ctx); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}
