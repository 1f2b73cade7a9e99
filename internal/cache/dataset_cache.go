// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/cohortscope/internal/logging"
	"github.com/tomtom215/cohortscope/internal/metrics"
	"github.com/tomtom215/cohortscope/internal/models"
	"github.com/tomtom215/cohortscope/internal/schema"
)

// DatasetLoader reads, cleans and materializes a named dataset.
type DatasetLoader interface {
	Load(ctx context.Context, name string) (*models.Dataset, error)
	Known(name string) bool
	Names() []string
}

// DatasetCache shares loaded datasets across all sessions for one TTL window.
type DatasetCache struct {
	store  *Store[*models.Dataset]
	loader DatasetLoader
}

// NewDatasetCache creates a DatasetCache in front of loader.
func NewDatasetCache(loader DatasetLoader, cfg StoreConfig) *DatasetCache {
	return &DatasetCache{
		store:  NewStore[*models.Dataset](cfg),
		loader: loader,
	}
}

// GetDataset returns the cached dataset or loads it. cached is false when
// this call waited on a load.
//
// Load failures are returned as is (a *dataset.LoadError from the standard
// loader) and leave the cache unchanged.
func (c *DatasetCache) GetDataset(ctx context.Context, name string) (ds *models.Dataset, cached bool, err error) {
	prior, hadPrior := c.store.Peek(name)
	entry, cached, err := c.store.GetOrLoad(ctx, name, c.load)
	if err != nil {
		return nil, false, err
	}
	if cached {
		metrics.RecordCacheHit(name)
	} else {
		metrics.RecordCacheMiss(name, hadPrior && !prior.ValidAt(c.store.now(), c.store.TTL()))
		metrics.DatasetCacheEntries.Set(float64(c.store.Len()))
	}
	return entry.Value, cached, nil
}

func (c *DatasetCache) load(ctx context.Context, name string) (*models.Dataset, error) {
	started := time.Now()
	ds, err := c.loader.Load(ctx, name)
	metrics.RecordDatasetLoad(name, time.Since(started), err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("dataset", name).Msg("Dataset load failed")
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Str("dataset", name).
		Uint64("generation", ds.Generation).
		Int64("rows", ds.RowCount).
		Dur("duration", time.Since(started)).
		Msg("Dataset loaded into cache")
	return ds, nil
}

// GetColumns returns the dataset's columns preceded by the "no selection"
// choice. An unknown dataset yields just the "no selection" choice.
func (c *DatasetCache) GetColumns(ctx context.Context, name string) ([]models.Optional[string], error) {
	if !c.loader.Known(name) {
		return schema.WithNoSelection(nil), nil
	}
	ds, _, err := c.GetDataset(ctx, name)
	if err != nil {
		return nil, err
	}
	return schema.WithNoSelection(ds.Columns), nil
}

// Names lists the datasets the loader can produce.
func (c *DatasetCache) Names() []string {
	return c.loader.Names()
}

// Known reports whether name is a catalog dataset.
func (c *DatasetCache) Known(name string) bool {
	return c.loader.Known(name)
}

// Info reports the cache state of name. Expired entries are reported as not cached.
func (c *DatasetCache) Info(name string) models.CacheInfo {
	info := models.CacheInfo{Dataset: name}
	entry, ok := c.store.Peek(name)
	if !ok {
		return info
	}
	now := c.store.now()
	if !entry.ValidAt(now, c.store.TTL()) {
		return info
	}

	expires := entry.CreatedAt.Add(c.store.TTL())
	left := expires.Sub(now)
	info.Cached = true
	info.CachedAt = entry.CreatedAt
	info.ExpiresAt = expires
	info.HoursLeft = left.Hours()
	info.Fresh = now.Sub(entry.CreatedAt) < time.Hour
	info.ExpiringSoon = left < time.Hour
	return info
}

// Warm loads every catalog dataset. Failures are logged and returned joined;
// datasets that loaded stay cached.
func (c *DatasetCache) Warm(ctx context.Context) error {
	var errs []error
	for _, name := range c.loader.Names() {
		if _, _, err := c.GetDataset(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Cleanup drops expired entries and returns how many were removed. Sessions
// that still hold an evicted dataset keep using it.
func (c *DatasetCache) Cleanup() int {
	removed := c.store.Cleanup()
	for name, ds := range removed {
		logging.Debug().Str("dataset", name).Uint64("generation", ds.Generation).Msg("Expired dataset evicted from cache")
	}
	metrics.DatasetCacheEvictions.Add(float64(len(removed)))
	metrics.DatasetCacheEntries.Set(float64(c.store.Len()))
	return len(removed)
}

// Stats returns the underlying store statistics.
func (c *DatasetCache) Stats() Stats {
	return c.store.GetStats()
}
