// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

/*
Package cache provides the process-wide dataset cache shared by all sessions.

# Overview

The package has two layers:

  - Store: a generic, thread-safe key to Entry map with a fixed TTL, an
    injectable clock and optional single-flight loading.
  - DatasetCache: a Store of *models.Dataset in front of a dataset loader,
    exposing GetDataset, GetColumns, Info and Warm.

# Validity

An entry is valid iff now - CreatedAt < TTL. An expired entry behaves exactly
like a missing one for readers: the next GetOrLoad reloads it and starts a new
TTL window. Expired entries are only physically removed by Cleanup, which the
janitor service runs periodically.

# Loading

GetOrLoad checks validity and, on a miss, runs the loader. With single-flight
enabled (the default) concurrent misses on one key share a single load:

	ds, cached, err := c.GetDataset(ctx, "E-commerce Data 1")

A failed load never stores anything. If an older entry existed it is left in
place untouched, so sessions holding the previous dataset keep working and
Info still reports when it was loaded.

# Clock

Tests inject a clock through StoreConfig.Now to step past the TTL without
sleeping:

	clock := newFakeClock()
	s := NewStore[int](StoreConfig{TTL: time.Hour, Now: clock.Now})
	clock.Advance(61 * time.Minute)
*/
package cache
