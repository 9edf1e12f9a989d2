package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pitwall/pitwall/internal/adapters/artifact"
	"github.com/pitwall/pitwall/internal/adapters/dataset"
	"github.com/pitwall/pitwall/internal/adapters/http/api"
	app "github.com/pitwall/pitwall/internal/app"
	"github.com/pitwall/pitwall/internal/config"
	"github.com/pitwall/pitwall/internal/domain/features"
	"github.com/pitwall/pitwall/pkg/logger"
	"github.com/pitwall/pitwall/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	datasetMetricsInterval = 30 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Load the regression model bundle.
	bundle, err := artifact.Load(cfg.ArtifactPath)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load model artifact", logger.String("path", cfg.ArtifactPath), logger.Error(err))
		return
	}
	loggerInstance.Info(ctx, "model artifact loaded",
		logger.String("path", cfg.ArtifactPath),
		logger.Any("featureColumns", bundle.FeatureColumns()),
	)

	// Open the historical dataset and aggregate driver profiles.
	store, err := dataset.Open(cfg.DatasetPath)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open dataset", logger.String("path", cfg.DatasetPath), logger.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	profiles, err := store.BuildProfiles(ctx)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build driver profiles", logger.Error(err))
		return
	}
	repo := features.NewInMemoryRepository(profiles,
		features.WithPriorRaceOverrides(cfg.PriorRaces),
	)
	loggerInstance.Info(ctx, "driver profiles ready", logger.Int("drivers", repo.Known()))

	// Create the prediction service.
	svc := app.New(bundle, repo, app.WithLogger(loggerInstance))

	// Start dataset metrics updater
	go startDatasetMetricsUpdater(ctx, store)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startDatasetMetricsUpdater periodically refreshes the stored-laps gauge so
// scrapes see dataset growth from concurrent ingest runs.
func startDatasetMetricsUpdater(ctx context.Context, store *dataset.Store) {
	ticker := time.NewTicker(datasetMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := store.CountLaps(ctx); err == nil {
				metrics.UpdateDatasetLapsStored(n)
			}
		}
	}
}
