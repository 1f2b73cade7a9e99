// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package dataset

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cohortscope/internal/cache"
	"github.com/tomtom215/cohortscope/internal/schema"
)

func TestDatasetCache_WithLoader(t *testing.T) {
	f := newFixture(t, LoaderConfig{BreakerFailures: 3, BreakerTimeout: time.Minute})
	dc := cache.NewDatasetCache(f.loader, cache.StoreConfig{TTL: 24 * time.Hour, SingleFlight: true})
	ctx := context.Background()

	var wg sync.WaitGroup
	gens := make([]uint64, 8)
	for i := range gens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, _, err := dc.GetDataset(ctx, schema.Ecommerce1)
			if err != nil {
				t.Error(err)
				return
			}
			gens[i] = ds.Generation
		}(i)
	}
	wg.Wait()
	for i, g := range gens {
		if g != gens[0] {
			t.Errorf("caller %d saw generation %d, caller 0 saw %d", i, g, gens[0])
		}
	}
	if live := f.loader.LiveTables(schema.Ecommerce1); len(live) != 1 {
		t.Errorf("concurrent first reads built %d tables, want 1", len(live))
	}

	cols, err := dc.GetColumns(ctx, schema.Ecommerce1)
	if err != nil {
		t.Fatal(err)
	}
	if cols[0].IsSet() || cols[1].OrElse("") != "InvoiceNo" {
		t.Errorf("GetColumns() = %v", cols)
	}

	_, _, err = dc.GetDataset(ctx, "E-commerce Data 3")
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("err = %v, want LoadError(ErrUnknownDataset)", err)
	}
	if dc.Info("E-commerce Data 3").Cached {
		t.Error("unknown dataset must not be cached")
	}
}
