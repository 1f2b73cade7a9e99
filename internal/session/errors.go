// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package session

import "errors"

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions is returned when the registry is full.
	ErrTooManySessions = errors.New("too many active sessions")

	// ErrNoDataset is returned by commands that need an active dataset.
	ErrNoDataset = errors.New("no dataset loaded")

	// ErrUnknownColumn is returned when a requested column is not in the active dataset.
	ErrUnknownColumn = errors.New("column not in active dataset")
)
