// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package services

import (
	"context"
	"time"

	"github.com/tomtom215/cohortscope/internal/logging"
)

// Task is one run of periodic housekeeping. It returns how many items it handled.
type Task func(ctx context.Context) int

// IntervalService runs a Task every interval until its context is canceled.
//
//	janitor := services.NewIntervalService("dataset-cache-janitor", 5*time.Minute,
//	    func(context.Context) int { return datasetCache.Cleanup() })
//	tree.AddDataService(janitor)
type IntervalService struct {
	name     string
	interval time.Duration
	task     Task
}

// NewIntervalService creates an IntervalService. A non-positive interval
// defaults to one minute.
func NewIntervalService(name string, interval time.Duration, task Task) *IntervalService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &IntervalService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service. A panicking task is recovered by suture
// and the service restarted.
func (s *IntervalService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.task(ctx); n > 0 {
				logging.Debug().Str("service", s.name).Int("handled", n).Msg("Housekeeping run")
			}
		}
	}
}

// String implements fmt.Stringer for suture's logs.
func (s *IntervalService) String() string {
	return s.name
}
