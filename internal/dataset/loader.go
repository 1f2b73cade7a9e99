// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cohortscope/internal/cache"
	"github.com/tomtom215/cohortscope/internal/database"
	"github.com/tomtom215/cohortscope/internal/logging"
	"github.com/tomtom215/cohortscope/internal/metrics"
	"github.com/tomtom215/cohortscope/internal/models"
)

var _ cache.DatasetLoader = (*Loader)(nil)

// keptGenerations is how many table generations of one dataset stay in DuckDB.
const keptGenerations = 2

// LoaderConfig configures the per-dataset circuit breakers.
type LoaderConfig struct {
	// BreakerFailures consecutive failures open the breaker. Zero disables it.
	BreakerFailures uint32

	// BreakerTimeout is how long an open breaker rejects loads.
	BreakerTimeout time.Duration
}

// Loader materializes catalog sources into DuckDB tables.
type Loader struct {
	db       *database.DB
	sources  []Source
	byName   map[string]Source
	bySlug   map[string]Source
	breakers map[string]*gobreaker.CircuitBreaker[*models.Dataset]

	generation atomic.Uint64

	mu     sync.Mutex
	tables map[string][]string // dataset name -> live tables, oldest first
}

// NewLoader creates a Loader over sources.
func NewLoader(db *database.DB, sources []Source, cfg LoaderConfig) *Loader {
	l := &Loader{
		db:       db,
		sources:  sources,
		byName:   make(map[string]Source, len(sources)),
		bySlug:   make(map[string]Source, len(sources)),
		breakers: make(map[string]*gobreaker.CircuitBreaker[*models.Dataset], len(sources)),
		tables:   make(map[string][]string),
	}
	for _, src := range sources {
		l.byName[src.Name] = src
		l.bySlug[src.Slug] = src
		if cfg.BreakerFailures > 0 {
			l.breakers[src.Name] = newBreaker(src.Name, cfg)
		}
	}
	return l
}

func newBreaker(name string, cfg LoaderConfig) *gobreaker.CircuitBreaker[*models.Dataset] {
	metrics.DatasetBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[*models.Dataset](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsExcluded: func(err error) bool {
			// A caller giving up says nothing about the source.
			return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("dataset", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Dataset load breaker state changed")
			metrics.DatasetBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Known reports whether name is in the catalog.
func (l *Loader) Known(name string) bool {
	_, ok := l.byName[name]
	return ok
}

// Names lists catalog dataset names in catalog order.
func (l *Loader) Names() []string {
	names := make([]string, len(l.sources))
	for i, src := range l.sources {
		names[i] = src.Name
	}
	return names
}

// Sources returns the catalog.
func (l *Loader) Sources() []Source {
	return append([]Source(nil), l.sources...)
}

// BySlug finds a catalog source by URL slug.
func (l *Loader) BySlug(slug string) (Source, bool) {
	src, ok := l.bySlug[slug]
	return src, ok
}

// ByName finds a catalog source by dataset name.
func (l *Loader) ByName(name string) (Source, bool) {
	src, ok := l.byName[name]
	return src, ok
}

// Load reads, cleans and materializes the named dataset. Every error is a *LoadError.
func (l *Loader) Load(ctx context.Context, name string) (*models.Dataset, error) {
	src, ok := l.byName[name]
	if !ok {
		return nil, &LoadError{Dataset: name, Err: ErrUnknownDataset}
	}

	var (
		ds  *models.Dataset
		err error
	)
	if cb, ok := l.breakers[name]; ok {
		ds, err = cb.Execute(func() (*models.Dataset, error) {
			return l.build(ctx, src)
		})
	} else {
		ds, err = l.build(ctx, src)
	}
	if err != nil {
		return nil, &LoadError{Dataset: name, Err: err}
	}
	return ds, nil
}

func (l *Loader) build(ctx context.Context, src Source) (*models.Dataset, error) {
	if _, err := os.Stat(src.Path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	gen := l.generation.Add(1)
	table := tableName(src.Slug, gen)

	if err := l.db.MaterializeQuery(ctx, table, src.Query()); err != nil {
		l.dropQuietly(table)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	ds, err := l.describe(ctx, src, table, gen)
	if err != nil {
		l.dropQuietly(table)
		return nil, err
	}

	l.retire(src.Name, table)
	return ds, nil
}

func (l *Loader) describe(ctx context.Context, src Source, table string, gen uint64) (*models.Dataset, error) {
	columns, err := l.db.TableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	for _, req := range src.Required {
		found := false
		for _, c := range columns {
			if c == req {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: column %q missing after cleaning", ErrInvariantViolated, req)
		}
	}

	rows, err := l.db.CountRows(ctx, table)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: no rows left after cleaning", ErrInvariantViolated)
	}

	return &models.Dataset{
		Name:       src.Name,
		Table:      table,
		Columns:    columns,
		RowCount:   rows,
		LoadedAt:   time.Now(),
		Generation: gen,
	}, nil
}

// retire records table as the newest generation of name and drops
// generations beyond keptGenerations.
func (l *Loader) retire(name, table string) {
	l.mu.Lock()
	live := append(l.tables[name], table)
	var stale []string
	if len(live) > keptGenerations {
		stale = append(stale, live[:len(live)-keptGenerations]...)
		live = live[len(live)-keptGenerations:]
	}
	l.tables[name] = live
	l.mu.Unlock()

	for _, t := range stale {
		l.dropQuietly(t)
		logging.Debug().Str("dataset", name).Str("table", t).Msg("Dropped retired dataset generation")
	}
}

// LiveTables returns the tables currently kept for name, oldest first.
func (l *Loader) LiveTables(name string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.tables[name]...)
}

func (l *Loader) dropQuietly(table string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := l.db.DropTable(ctx, table); err != nil {
		logging.Warn().Err(err).Str("table", table).Msg("Failed to drop dataset table")
	}
}

func tableName(slug string, gen uint64) string {
	return fmt.Sprintf("ds_%s_g%d", strings.ReplaceAll(slug, "-", "_"), gen)
}
