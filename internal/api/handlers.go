// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package api

import (
	"context"
	"time"

	"github.com/tomtom215/cohortscope/internal/dataset"
	"github.com/tomtom215/cohortscope/internal/middleware"
	"github.com/tomtom215/cohortscope/internal/models"
	"github.com/tomtom215/cohortscope/internal/session"
)

// Catalog lists the configured datasets. *dataset.Loader implements it.
type Catalog interface {
	Sources() []dataset.Source
	BySlug(slug string) (dataset.Source, bool)
}

// Datasets is the shared dataset cache. *cache.DatasetCache implements it.
type Datasets interface {
	GetDataset(ctx context.Context, name string) (*models.Dataset, bool, error)
	GetColumns(ctx context.Context, name string) ([]models.Optional[string], error)
	Info(name string) models.CacheInfo
}

// Explorer summarizes loaded datasets. *database.DB implements it.
type Explorer interface {
	Overview(ctx context.Context, ds *models.Dataset, customerColumn models.Optional[string]) (*models.DatasetOverview, error)
	Preview(ctx context.Context, ds *models.Dataset, rows int) (*models.PreviewTable, error)
	Ping(ctx context.Context) error
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: health probes and performance stats
//   - handlers_datasets.go: catalog, columns, overview and preview
//   - handlers_sessions.go: session lifecycle and analysis commands
type Handler struct {
	catalog   Catalog
	datasets  Datasets
	explorer  Explorer
	sessions  *session.Manager
	perfMon   *middleware.PerformanceMonitor
	startTime time.Time
}

// NewHandler creates a Handler. perfMon may be nil.
func NewHandler(catalog Catalog, datasets Datasets, explorer Explorer, sessions *session.Manager, perfMon *middleware.PerformanceMonitor) *Handler {
	return &Handler{
		catalog:   catalog,
		datasets:  datasets,
		explorer:  explorer,
		sessions:  sessions,
		perfMon:   perfMon,
		startTime: time.Now(),
	}
}
