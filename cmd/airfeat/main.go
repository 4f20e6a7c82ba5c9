// Command airfeat runs the air-quality feature pipeline, either one stage or
// the whole sequence.
//
// Usage:
//
//	go run ./cmd/airfeat -stage all
//	go run ./cmd/airfeat -stage features
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/docker/go-units"
	"github.com/google/uuid"

	httpadapter "github.com/couchcryptid/jp-air-features/internal/adapter/http"
	"github.com/couchcryptid/jp-air-features/internal/config"
	"github.com/couchcryptid/jp-air-features/internal/observability"
	"github.com/couchcryptid/jp-air-features/internal/pipeline"
)

func main() {
	stage := flag.String("stage", "all", "stage to run: holidays, stations, convert, features, project or all")
	flag.Parse()

	if err := run(*stage); err != nil {
		slog.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run(stageName string) error {
	stages, err := pipeline.ParseStages(stageName)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, uuid.NewString())
	metrics := observability.NewMetrics()

	if cfg.MemoryLimit > 0 {
		debug.SetMemoryLimit(cfg.MemoryLimit)
		logger.Info("memory limit set", "limit", units.BytesSize(float64(cfg.MemoryLimit)))
	}

	runner := pipeline.New(cfg, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, runner, metrics.Registry, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := runner.Run(ctx, stages)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if cfg.MetricsTextfile != "" {
		if err := observability.WriteTextfile(cfg.MetricsTextfile, metrics.Registry); err != nil {
			logger.Error("write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("shutdown complete")
	return nil
}
