// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cohortscope/internal/models"
)

var errUnknown = errors.New("unknown dataset")

// fakeLoader serves fixed column lists and counts loads per dataset.
type fakeLoader struct {
	mu      sync.Mutex
	columns map[string][]string
	calls   map[string]int
	fail    map[string]error
	gen     uint64
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		columns: map[string][]string{
			"E-commerce Data 1": {"InvoiceNo", "StockCode", "CustomerID", "InvoiceDateTime", "TotalPrice"},
			"E-commerce Data 2": {"Order_Date", "Customer_Id", "Sales", "OrderedDateTime"},
		},
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

func (l *fakeLoader) Load(_ context.Context, name string) (*models.Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[name]++
	if err := l.fail[name]; err != nil {
		return nil, err
	}
	cols, ok := l.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknown, name)
	}
	l.gen++
	return &models.Dataset{
		Name:       name,
		Table:      fmt.Sprintf("ds_test_g%d", l.gen),
		Columns:    cols,
		RowCount:   10,
		Generation: l.gen,
	}, nil
}

func (l *fakeLoader) Known(name string) bool {
	_, ok := l.columns[name]
	return ok
}

func (l *fakeLoader) Names() []string {
	return []string{"E-commerce Data 1", "E-commerce Data 2"}
}

func (l *fakeLoader) callCount(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[name]
}

func newTestDatasetCache(t *testing.T) (*DatasetCache, *fakeLoader, *fakeClock) {
	t.Helper()
	loader := newFakeLoader()
	clock := newFakeClock()
	c := NewDatasetCache(loader, StoreConfig{TTL: 24 * time.Hour, SingleFlight: true, Now: clock.Now})
	return c, loader, clock
}

func TestGetDataset_SharedWithinTTL(t *testing.T) {
	c, loader, clock := newTestDatasetCache(t)
	ctx := context.Background()

	first, cached, err := c.GetDataset(ctx, "E-commerce Data 1")
	if err != nil {
		t.Fatal(err)
	}
	if cached {
		t.Error("first call cannot be a cache hit")
	}

	clock.Advance(12 * time.Hour)
	second, cached, err := c.GetDataset(ctx, "E-commerce Data 1")
	if err != nil {
		t.Fatal(err)
	}
	if !cached || second != first {
		t.Errorf("expected the same dataset from cache, cached=%v", cached)
	}
	if n := loader.callCount("E-commerce Data 1"); n != 1 {
		t.Errorf("loads = %d, want 1", n)
	}
}

func TestGetDataset_ReloadAfterExpiry(t *testing.T) {
	c, loader, clock := newTestDatasetCache(t)
	ctx := context.Background()

	old, _, _ := c.GetDataset(ctx, "E-commerce Data 2")
	clock.Advance(25 * time.Hour)

	fresh, cached, err := c.GetDataset(ctx, "E-commerce Data 2")
	if err != nil {
		t.Fatal(err)
	}
	if cached {
		t.Error("expired entry must be reloaded")
	}
	if fresh.Generation <= old.Generation {
		t.Errorf("generation %d should be newer than %d", fresh.Generation, old.Generation)
	}
	// The earlier holder still sees its own immutable dataset.
	if old.Table == fresh.Table {
		t.Error("reload should produce a new table")
	}
	if n := loader.callCount("E-commerce Data 2"); n != 2 {
		t.Errorf("loads = %d, want 2", n)
	}
}

func TestGetDataset_UnknownLeavesNoEntry(t *testing.T) {
	c, _, _ := newTestDatasetCache(t)

	_, _, err := c.GetDataset(context.Background(), "E-commerce Data 3")
	if !errors.Is(err, errUnknown) {
		t.Fatalf("err = %v, want %v", err, errUnknown)
	}
	if info := c.Info("E-commerce Data 3"); info.Cached {
		t.Error("failed load must not be cached")
	}
	if s := c.Stats(); s.Entries != 0 || s.LoadErrors != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestGetDataset_FailedReloadKeepsOldEntry(t *testing.T) {
	c, loader, clock := newTestDatasetCache(t)
	ctx := context.Background()

	old, _, _ := c.GetDataset(ctx, "E-commerce Data 1")
	clock.Advance(25 * time.Hour)

	loader.mu.Lock()
	loader.fail["E-commerce Data 1"] = errors.New("file removed")
	loader.mu.Unlock()

	if _, _, err := c.GetDataset(ctx, "E-commerce Data 1"); err == nil {
		t.Fatal("expected load failure")
	}
	entry, ok := c.store.Peek("E-commerce Data 1")
	if !ok || entry.Value != old {
		t.Error("stale entry should remain after a failed reload")
	}
}

func TestGetColumns(t *testing.T) {
	c, _, _ := newTestDatasetCache(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		dataset string
		want    []string
	}{
		{"known dataset", "E-commerce Data 2", []string{"None", "Order_Date", "Customer_Id", "Sales", "OrderedDateTime"}},
		{"unknown dataset", "Not A Dataset", []string{"None"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.GetColumns(ctx, tt.dataset)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("GetColumns() = %v, want %v", got, tt.want)
			}
			if got[0].IsSet() {
				t.Error("first choice must be the no-selection sentinel")
			}
			for i := range got {
				if got[i].String() != tt.want[i] {
					t.Errorf("choice %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestInfo(t *testing.T) {
	c, _, clock := newTestDatasetCache(t)
	ctx := context.Background()

	if info := c.Info("E-commerce Data 1"); info.Cached {
		t.Fatal("nothing loaded yet")
	}

	if _, _, err := c.GetDataset(ctx, "E-commerce Data 1"); err != nil {
		t.Fatal(err)
	}
	info := c.Info("E-commerce Data 1")
	if !info.Cached || !info.Fresh || info.ExpiringSoon {
		t.Errorf("just loaded: %+v", info)
	}
	if info.HoursLeft != 24 {
		t.Errorf("HoursLeft = %v, want 24", info.HoursLeft)
	}

	clock.Advance(23*time.Hour + 30*time.Minute)
	info = c.Info("E-commerce Data 1")
	if !info.Cached || info.Fresh || !info.ExpiringSoon {
		t.Errorf("near expiry: %+v", info)
	}

	clock.Advance(time.Hour)
	if info := c.Info("E-commerce Data 1"); info.Cached {
		t.Errorf("expired entry reported as cached: %+v", info)
	}
}

func TestWarmAndCleanup(t *testing.T) {
	c, loader, clock := newTestDatasetCache(t)
	ctx := context.Background()

	if err := c.Warm(ctx); err != nil {
		t.Fatalf("Warm() = %v", err)
	}
	for _, name := range loader.Names() {
		if !c.Info(name).Cached {
			t.Errorf("%s not warmed", name)
		}
	}

	if n := c.Cleanup(); n != 0 {
		t.Errorf("Cleanup() removed %d valid entries", n)
	}
	clock.Advance(24 * time.Hour)
	if n := c.Cleanup(); n != 2 {
		t.Errorf("Cleanup() = %d, want 2", n)
	}
	if s := c.Stats(); s.Entries != 0 {
		t.Errorf("Entries = %d after cleanup", s.Entries)
	}
}

func TestWarm_JoinsFailures(t *testing.T) {
	c, loader, _ := newTestDatasetCache(t)
	boom := errors.New("disk gone")
	loader.fail["E-commerce Data 2"] = boom

	err := c.Warm(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Warm() = %v, want wrapped %v", err, boom)
	}
	if !c.Info("E-commerce Data 1").Cached {
		t.Error("successful dataset should stay cached")
	}
}
