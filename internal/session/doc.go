// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

// Package session holds per-user analysis state.
//
// A Session is a small state machine:
//
//	NoDataset --load--> DatasetLoaded --generate--> ResultReady
//	                        ^                            |
//	                        +-------load other/reset-----+
//
// Switching the active dataset always drops the stored result before the new
// dataset becomes visible. A failed generation keeps the previous result.
//
// The Manager owns every Session of the process, drives the commands
// (LoadDataset, Generate, Reset, EnsureResult) against the shared dataset
// cache and the cohort orchestrator, and reaps sessions that sit idle past
// the configured timeout. Commands on one session run one at a time.
package session
