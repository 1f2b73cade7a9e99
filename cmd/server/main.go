// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/cohortscope/internal/api"
	"github.com/tomtom215/cohortscope/internal/cache"
	"github.com/tomtom215/cohortscope/internal/cohort"
	"github.com/tomtom215/cohortscope/internal/config"
	"github.com/tomtom215/cohortscope/internal/database"
	"github.com/tomtom215/cohortscope/internal/dataset"
	"github.com/tomtom215/cohortscope/internal/logging"
	"github.com/tomtom215/cohortscope/internal/middleware"
	"github.com/tomtom215/cohortscope/internal/session"
	"github.com/tomtom215/cohortscope/internal/supervisor"
	"github.com/tomtom215/cohortscope/internal/supervisor/services"
)

// warmupTimeout bounds the startup load of all catalog datasets.
const warmupTimeout = 5 * time.Minute

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("data_dir", cfg.Datasets.DataDir).
		Str("db_path", cfg.Database.Path).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("Starting Cohortscope with supervisor tree")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	loader := dataset.NewLoader(db, dataset.Catalog(cfg.Datasets), dataset.LoaderConfig{
		BreakerFailures: cfg.Cache.BreakerFailures,
		BreakerTimeout:  cfg.Cache.BreakerTimeout,
	})
	datasets := cache.NewDatasetCache(loader, cache.StoreConfig{
		TTL:          cfg.Cache.TTL,
		SingleFlight: cfg.Cache.SingleFlight,
	})
	sessions := session.NewManager(datasets, cohort.NewOrchestrator(db), session.Config{
		IdleTimeout: cfg.Session.IdleTimeout,
		MaxSessions: cfg.Session.MaxSessions,
	})

	perfMon := middleware.NewPerformanceMonitor(1000, middleware.DefaultSlowRequestThreshold)
	handler := api.NewHandler(loader, datasets, db, sessions, perfMon)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security)))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	// Data layer
	if cfg.Cache.WarmOnStartup {
		tree.AddDataService(services.NewWarmupService(datasets, warmupTimeout))
	}
	tree.AddDataService(services.NewIntervalService("dataset-cache-janitor", cfg.Cache.CleanupInterval,
		func(context.Context) int { return datasets.Cleanup() }))
	tree.AddDataService(services.NewIntervalService("session-reaper", cfg.Session.CleanupInterval,
		func(context.Context) int { return sessions.Reap() }))

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if errors.Is(serveErr, context.Canceled) {
		serveErr = nil
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
	if serveErr != nil {
		return fmt.Errorf("supervisor tree: %w", serveErr)
	}
	return nil
}
