// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cli

import (
	"fmt"

	"github.com/tomtom215/cohortscope/internal/cache"
	"github.com/tomtom215/cohortscope/internal/cohort"
	"github.com/tomtom215/cohortscope/internal/config"
	"github.com/tomtom215/cohortscope/internal/database"
	"github.com/tomtom215/cohortscope/internal/dataset"
	"github.com/tomtom215/cohortscope/internal/logging"
	"github.com/tomtom215/cohortscope/internal/session"
)

// AppContext holds the engine and services shared by the commands.
type AppContext struct {
	Config   *config.Config
	DB       *database.DB
	Loader   *dataset.Loader
	Datasets *cache.DatasetCache
	Sessions *session.Manager
}

// loadConfig reads configuration and points the logger at stderr so that
// command output on stdout stays machine readable.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = "console"
	logging.Init(logCfg)
	return cfg, nil
}

// NewAppContext opens the engine and builds the dataset and session layers.
func NewAppContext() (*AppContext, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics engine: %w", err)
	}

	loader := dataset.NewLoader(db, dataset.Catalog(cfg.Datasets), dataset.LoaderConfig{
		BreakerFailures: cfg.Cache.BreakerFailures,
		BreakerTimeout:  cfg.Cache.BreakerTimeout,
	})
	datasets := cache.NewDatasetCache(loader, cache.StoreConfig{
		TTL:          cfg.Cache.TTL,
		SingleFlight: cfg.Cache.SingleFlight,
	})
	sessions := session.NewManager(datasets, cohort.NewOrchestrator(db), session.Config{MaxSessions: 1})

	return &AppContext{
		Config:   cfg,
		DB:       db,
		Loader:   loader,
		Datasets: datasets,
		Sessions: sessions,
	}, nil
}

// Close releases the engine.
func (a *AppContext) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// resolveSource finds a catalog dataset by display name or slug.
func resolveSource(sources []dataset.Source, arg string) (dataset.Source, error) {
	for _, src := range sources {
		if src.Name == arg || src.Slug == arg {
			return src, nil
		}
	}
	return dataset.Source{}, fmt.Errorf("%w: %q", dataset.ErrUnknownDataset, arg)
}
