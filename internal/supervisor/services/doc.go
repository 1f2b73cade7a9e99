// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

// Package services adapts cohortscope components to suture.Service.
//
//   - HTTPServerService: ListenAndServe with graceful Shutdown
//   - IntervalService: runs a task on a ticker (cache janitor, session reaper)
//   - WarmupService: preloads the dataset catalog once, then stops
package services
