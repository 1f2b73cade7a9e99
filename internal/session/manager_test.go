// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cohortscope/internal/cohort"
	"github.com/tomtom215/cohortscope/internal/models"
	"github.com/tomtom215/cohortscope/internal/schema"
)

var errLoad = errors.New("load failed")

// fakeDatasets behaves like the dataset cache: a name keeps its generation
// until expire is called.
type fakeDatasets struct {
	mu      sync.Mutex
	gen     uint64
	fail    bool
	current map[string]*models.Dataset
}

func (f *fakeDatasets) GetDataset(_ context.Context, name string) (*models.Dataset, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, false, errLoad
	}
	if ds, ok := f.current[name]; ok {
		return ds, true, nil
	}
	var cols []string
	switch name {
	case schema.Ecommerce1:
		cols = []string{"InvoiceNo", "CustomerID", "InvoiceDateTime", "TotalPrice"}
	case schema.Ecommerce2:
		cols = []string{"Customer_Id", "Sales", "OrderedDateTime"}
	case "Scratch":
		cols = []string{"a", "b"}
	default:
		return nil, false, fmt.Errorf("%w: unknown %q", errLoad, name)
	}
	f.gen++
	ds := &models.Dataset{Name: name, Table: fmt.Sprintf("t%d", f.gen), Columns: cols, Generation: f.gen}
	if f.current == nil {
		f.current = make(map[string]*models.Dataset)
	}
	f.current[name] = ds
	return ds, false, nil
}

func (f *fakeDatasets) expire() {
	f.mu.Lock()
	f.current = nil
	f.mu.Unlock()
}

func (f *fakeDatasets) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

// countingEngine returns a one-cell matrix and counts calls.
type countingEngine struct {
	mu     sync.Mutex
	calls  []cohort.EngineParams
	tables []string
	err    error
}

func (e *countingEngine) ComputeCohort(_ context.Context, data *models.Dataset, p cohort.EngineParams) (*models.CohortMatrix, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, p)
	e.tables = append(e.tables, data.Table)
	if e.err != nil {
		return nil, e.err
	}
	v := 1.0
	return &models.CohortMatrix{
		Periods: []time.Time{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		Sizes:   []int64{1},
		Offsets: []int{0},
		Cells:   [][]*float64{{&v}},
	}, nil
}

func (e *countingEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func (e *countingEngine) lastTable() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.tables) == 0 {
		return ""
	}
	return e.tables[len(e.tables)-1]
}

func (e *countingEngine) setErr(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	m        *Manager
	datasets *fakeDatasets
	engine   *countingEngine
	clock    *testClock
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		datasets: &fakeDatasets{},
		engine:   &countingEngine{},
		clock:    &testClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	cfg.Now = h.clock.Now
	h.m = NewManager(h.datasets, cohort.NewOrchestrator(h.engine), cfg)
	return h
}

func (h *harness) newSession(t *testing.T) string {
	t.Helper()
	s, err := h.m.Create()
	if err != nil {
		t.Fatal(err)
	}
	return s.ID
}

func TestRegistry(t *testing.T) {
	h := newHarness(t, Config{MaxSessions: 2})

	a := h.newSession(t)
	b := h.newSession(t)
	if a == b {
		t.Fatal("session ids must be unique")
	}
	if _, err := h.m.Create(); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("third Create() = %v, want ErrTooManySessions", err)
	}
	if h.m.Len() != 2 || len(h.m.IDs()) != 2 {
		t.Errorf("Len() = %d", h.m.Len())
	}

	if err := h.m.Delete(a); err != nil {
		t.Fatal(err)
	}
	if _, err := h.m.Get(a); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(deleted) = %v", err)
	}
	if err := h.m.Delete(a); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Delete(deleted) = %v", err)
	}
	if _, err := h.m.Create(); err != nil {
		t.Errorf("Create() after delete = %v", err)
	}
}

func TestReap(t *testing.T) {
	h := newHarness(t, Config{IdleTimeout: time.Hour})
	idle := h.newSession(t)
	h.clock.Advance(40 * time.Minute)
	active := h.newSession(t)
	h.clock.Advance(30 * time.Minute)

	if _, err := h.m.Get(active); err != nil {
		t.Fatal(err)
	}
	if n := h.m.Reap(); n != 1 {
		t.Errorf("Reap() = %d, want 1", n)
	}
	if _, err := h.m.Get(idle); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("idle session still reachable: %v", err)
	}

	h.clock.Advance(2 * time.Hour)
	if _, err := h.m.Get(active); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() on an expired session = %v, want ErrSessionNotFound", err)
	}
	if h.m.Len() != 0 {
		t.Errorf("Len() = %d after expiry", h.m.Len())
	}
}

func TestSwitchInvalidation(t *testing.T) {
	h := newHarness(t, Config{})
	id := h.newSession(t)
	ctx := context.Background()

	if _, err := h.m.LoadDataset(ctx, id, schema.Ecommerce1); err != nil {
		t.Fatal(err)
	}
	if _, err := h.m.Generate(ctx, id, cohort.Options{}); err != nil {
		t.Fatal(err)
	}
	s, _ := h.m.Get(id)
	if s.Result() == nil || s.State() != StateResultReady {
		t.Fatalf("state after generate = %s", s.State())
	}

	snap, err := h.m.LoadDataset(ctx, id, schema.Ecommerce2)
	if err != nil {
		t.Fatal(err)
	}
	if s.Result() != nil {
		t.Error("result from the previous dataset must not be visible")
	}
	if snap.State != StateDatasetLoaded || snap.HasResult || snap.LastRequest != nil {
		t.Errorf("snapshot after switch = %+v", snap)
	}
	if snap.Dataset != schema.Ecommerce2 || snap.Detected.Customer.OrElse("") != "Customer_Id" {
		t.Errorf("snapshot dataset = %+v", snap)
	}
}

func TestReloadSameDatasetKeepsResult(t *testing.T) {
	h := newHarness(t, Config{})
	id := h.newSession(t)
	ctx := context.Background()

	h.m.LoadDataset(ctx, id, schema.Ecommerce1)
	res, err := h.m.Generate(ctx, id, cohort.Options{})
	if err != nil {
		t.Fatal(err)
	}
	h.datasets.expire()
	snap, err := h.m.LoadDataset(ctx, id, schema.Ecommerce1)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := h.m.Get(id)
	if s.Result() != res {
		t.Error("re-activating the same dataset identity should keep the result")
	}
	if snap.Generation != 2 {
		t.Errorf("generation = %d, want the newer generation", snap.Generation)
	}
}

func TestGenerateUsesCurrentGeneration(t *testing.T) {
	h := newHarness(t, Config{})
	id := h.newSession(t)
	ctx := context.Background()

	if _, err := h.m.LoadDataset(ctx, id, schema.Ecommerce1); err != nil {
		t.Fatal(err)
	}
	first, err := h.m.Generate(ctx, id, cohort.Options{})
	if err != nil {
		t.Fatal(err)
	}

	// Two refreshes by other sessions retire the generation loaded above.
	h.datasets.expire()
	h.datasets.GetDataset(ctx, schema.Ecommerce1)
	h.datasets.expire()
	h.datasets.GetDataset(ctx, schema.Ecommerce1)

	res, err := h.m.Generate(ctx, id, cohort.Options{PeriodDuration: 7})
	if err != nil {
		t.Fatal(err)
	}
	if res.Generation != 3 || h.engine.lastTable() != "t3" {
		t.Errorf("generated on generation %d table %q, want 3 and t3", res.Generation, h.engine.lastTable())
	}
	s, _ := h.m.Get(id)
	if s.Dataset().Generation != 3 {
		t.Errorf("session generation = %d, want 3", s.Dataset().Generation)
	}
	if first.Generation != 1 {
		t.Errorf("first result generation = %d, want 1", first.Generation)
	}

	// A failed refresh falls back to the generation the session holds.
	h.datasets.expire()
	h.datasets.setFail(true)
	if _, err := h.m.Generate(ctx, id, cohort.Options{}); err != nil {
		t.Fatalf("generate with failing refresh: %v", err)
	}
	if h.engine.lastTable() != "t3" {
		t.Errorf("fallback table = %q, want t3", h.engine.lastTable())
	}
}

func TestLoadFailureLeavesSessionUnchanged(t *testing.T) {
	h := newHarness(t, Config{})
	id := h.newSession(t)
	ctx := context.Background()

	h.m.LoadDataset(ctx, id, schema.Ecommerce1)
	if _, err := h.m.LoadDataset(ctx, id, "E-commerce Data 9"); !errors.Is(err, errLoad) {
		t.Fatalf("err = %v", err)
	}
	s, _ := h.m.Get(id)
	if s.Dataset() == nil || s.Dataset().Name != schema.Ecommerce1 {
		t.Errorf("active dataset changed after a failed load: %+v", s.Dataset())
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("no dataset", func(t *testing.T) {
		h := newHarness(t, Config{})
		id := h.newSession(t)
		if _, err := h.m.Generate(ctx, id, cohort.Options{}); !errors.Is(err, ErrNoDataset) {
			t.Errorf("err = %v, want ErrNoDataset", err)
		}
	})

	t.Run("user count uses detected columns and two engine calls", func(t *testing.T) {
		h := newHarness(t, Config{})
		id := h.newSession(t)
		h.m.LoadDataset(ctx, id, schema.Ecommerce1)

		res, err := h.m.Generate(ctx, id, cohort.Options{Period: cohort.Monthly, PeriodDuration: 30})
		if err != nil {
			t.Fatal(err)
		}
		if res.Request.DateColumn != "InvoiceDateTime" || res.Request.CustomerColumn != "CustomerID" {
			t.Errorf("request = %+v", res.Request)
		}
		if res.Percent == nil || h.engine.callCount() != 2 {
			t.Errorf("percent=%v engine calls=%d", res.Percent, h.engine.callCount())
		}
	})

	t.Run("value column without aggregation defaults to sum", func(t *testing.T) {
		h := newHarness(t, Config{})
		id := h.newSession(t)
		h.m.LoadDataset(ctx, id, schema.Ecommerce1)

		res, err := h.m.Generate(ctx, id, cohort.Options{ValueColumn: models.Some("TotalPrice")})
		if err != nil {
			t.Fatal(err)
		}
		if agg, _ := res.Request.Aggregation.Get(); agg != cohort.Sum {
			t.Errorf("aggregation = %v, want sum", res.Request.Aggregation)
		}
		if res.Request.ComputeRetention || res.Percent != nil {
			t.Error("value analysis must not compute retention")
		}
		if h.engine.callCount() != 1 {
			t.Errorf("engine calls = %d, want 1", h.engine.callCount())
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		h := newHarness(t, Config{})
		id := h.newSession(t)
		h.m.LoadDataset(ctx, id, schema.Ecommerce1)
		_, err := h.m.Generate(ctx, id, cohort.Options{ValueColumn: models.Some("Sales")})
		if !errors.Is(err, ErrUnknownColumn) {
			t.Errorf("err = %v, want ErrUnknownColumn", err)
		}
		if h.engine.callCount() != 0 {
			t.Error("engine must not run for an unknown column")
		}
	})

	t.Run("failure keeps previous result", func(t *testing.T) {
		h := newHarness(t, Config{})
		id := h.newSession(t)
		h.m.LoadDataset(ctx, id, schema.Ecommerce1)
		good, err := h.m.Generate(ctx, id, cohort.Options{})
		if err != nil {
			t.Fatal(err)
		}

		h.engine.setErr(errors.New("engine exploded"))
		_, err = h.m.Generate(ctx, id, cohort.Options{ValueColumn: models.Some("InvoiceNo")})
		var compErr *cohort.ComputationError
		if !errors.As(err, &compErr) {
			t.Fatalf("err = %v, want ComputationError", err)
		}
		s, _ := h.m.Get(id)
		if s.Result() != good {
			t.Error("failed generation must leave the last good result")
		}
		if snap := s.Snapshot(); snap.LastRequest == nil || snap.LastRequest.IsValueAnalysis() {
			t.Errorf("last request should still be the successful one: %+v", snap.LastRequest)
		}
	})
}

func TestEnsureResultAndReset(t *testing.T) {
	h := newHarness(t, Config{})
	id := h.newSession(t)
	ctx := context.Background()

	if _, err := h.m.EnsureResult(ctx, id); !errors.Is(err, ErrNoDataset) {
		t.Errorf("EnsureResult() without dataset = %v", err)
	}

	h.m.LoadDataset(ctx, id, schema.Ecommerce2)
	first, err := h.m.EnsureResult(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if first.Request.Period != cohort.DefaultPeriod || first.Request.PeriodDuration != cohort.DefaultPeriodDuration {
		t.Errorf("auto generation used %+v", first.Request)
	}
	again, _ := h.m.EnsureResult(ctx, id)
	if again != first || h.engine.callCount() != 2 {
		t.Errorf("second read regenerated (calls=%d)", h.engine.callCount())
	}

	snap, err := h.m.Reset(id)
	if err != nil {
		t.Fatal(err)
	}
	if snap.HasResult || snap.State != StateDatasetLoaded {
		t.Errorf("snapshot after reset = %+v", snap)
	}
	if _, err := h.m.EnsureResult(ctx, id); err != nil {
		t.Fatal(err)
	}
	if h.engine.callCount() != 4 {
		t.Errorf("engine calls = %d, want 4 after regeneration", h.engine.callCount())
	}
}

func TestEnsureResult_CannotGenerate(t *testing.T) {
	h := newHarness(t, Config{})
	id := h.newSession(t)
	ctx := context.Background()

	// An identity outside the schema profiles has no detectable columns.
	if _, err := h.m.LoadDataset(ctx, id, "Scratch"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.m.EnsureResult(ctx, id); !errors.Is(err, cohort.ErrCannotGenerate) {
		t.Errorf("err = %v, want ErrCannotGenerate", err)
	}
	if h.engine.callCount() != 0 {
		t.Error("engine must not be called")
	}
}

func TestSessionStorePrimitives(t *testing.T) {
	s := newSession("s1", time.Now())
	if s.State() != StateNoDataset {
		t.Fatalf("initial state = %s", s.State())
	}

	a := &models.Dataset{Name: schema.Ecommerce1, Columns: []string{"CustomerID", "InvoiceDateTime"}}
	s.SetActiveDataset(a)
	s.SetResult(&cohort.Result{Dataset: a.Name})
	if s.State() != StateResultReady {
		t.Fatalf("state = %s", s.State())
	}

	s.InvalidateResults()
	if s.Result() != nil || s.Snapshot().LastRequest != nil {
		t.Error("InvalidateResults() should drop result and request")
	}

	s.SetResult(&cohort.Result{Dataset: a.Name})
	s.SetActiveDataset(nil)
	if s.Result() != nil || s.State() != StateNoDataset {
		t.Error("clearing the dataset should drop the result")
	}
}
