// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package services

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/cohortscope/internal/logging"
)

// Warmer preloads datasets. *cache.DatasetCache implements it.
type Warmer interface {
	Warm(ctx context.Context) error
}

// WarmupService loads every catalog dataset once at startup. A failed
// dataset is not retried here; the first request for it loads it again.
type WarmupService struct {
	warmer  Warmer
	timeout time.Duration
}

// NewWarmupService creates a WarmupService. timeout bounds the whole warm-up;
// zero means no bound.
func NewWarmupService(warmer Warmer, timeout time.Duration) *WarmupService {
	return &WarmupService{warmer: warmer, timeout: timeout}
}

// Serve implements suture.Service. It returns suture.ErrDoNotRestart when done.
func (s *WarmupService) Serve(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.warmer.Warm(ctx); err != nil {
		logging.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Dataset warm-up incomplete")
	} else {
		logging.Info().Dur("duration", time.Since(start)).Msg("Dataset warm-up complete")
	}
	return suture.ErrDoNotRestart
}

// String implements fmt.Stringer for suture's logs.
func (s *WarmupService) String() string {
	return "dataset-warmup"
}
