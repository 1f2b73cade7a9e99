// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

// Package logging provides the zerolog-based structured logger used across Cohortscope.
//
// A single global logger is configured once at startup through Init. Components log
// through the level helpers (Info, Warn, Error, ...) or, when a request or session is
// in flight, through Ctx which stamps the request, correlation and session ids that
// were attached to the context.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("dataset", name).Msg("Dataset loaded")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Cohort generation failed")
//
// # Fields
//
// Loggers use a small set of stable field names so log pipelines can index them:
//
//   - request_id: HTTP request id (set by middleware)
//   - correlation_id: short id tying together work spawned by one operation
//   - session_id: analysis session the work belongs to
//   - dataset, generation, duration: dataset cache activity
//
// # slog Bridge
//
// Libraries that speak log/slog (sutureslog in particular) are given a slog.Logger
// from NewSlogLogger so their output lands in the same zerolog stream.
//
// Always terminate event chains with Msg or Send; an unterminated chain is never written.
package logging
