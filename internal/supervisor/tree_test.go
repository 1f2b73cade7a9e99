// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/cohortscope/internal/supervisor/services"
)

// stubService blocks until canceled, failing its first failFirst runs.
type stubService struct {
	name      string
	starts    atomic.Int32
	failFirst int32
}

func (s *stubService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.failFirst {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) String() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("root supervisor should not be nil")
	}
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want defaults %+v", tree.config, DefaultTreeConfig())
	}

	custom, _ := NewSupervisorTree(testLogger(), TreeConfig{FailureThreshold: 2, ShutdownTimeout: time.Second})
	if custom.config.FailureThreshold != 2 || custom.config.ShutdownTimeout != time.Second {
		t.Errorf("explicit values overwritten: %+v", custom.config)
	}
	if custom.config.FailureDecay != 30 {
		t.Errorf("FailureDecay = %v, want default 30", custom.config.FailureDecay)
	}
}

func TestSupervisorTree_RunsBothLayers(t *testing.T) {
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})

	var reaped atomic.Int32
	tree.AddDataService(services.NewIntervalService("session-reaper", 5*time.Millisecond, func(context.Context) int {
		reaped.Add(1)
		return 0
	}))
	api := &stubService{name: "api"}
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for reaped.Load() < 2 || api.starts.Load() < 1 {
		select {
		case <-deadline:
			t.Fatalf("reaper runs = %d, api starts = %d", reaped.Load(), api.starts.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree stopped with %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}
}

func TestSupervisorTree_RestartsFailingService(t *testing.T) {
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	failing := &stubService{name: "janitor", failFirst: 2}
	stable := &stubService{name: "http"}
	tree.AddDataService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for failing.starts.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("failing service started %d times, want 3", failing.starts.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-errCh

	if stable.starts.Load() != 1 {
		t.Errorf("stable service started %d times, want 1", stable.starts.Load())
	}
}
