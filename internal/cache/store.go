// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry wraps a cached value with its creation time.
type Entry[V any] struct {
	Value     V
	CreatedAt time.Time
}

// ValidAt reports whether the entry is still within ttl at now.
func (e Entry[V]) ValidAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) < ttl
}

// Loader computes the value for key on a miss.
type Loader[V any] func(ctx context.Context, key string) (V, error)

// StoreConfig configures a Store.
type StoreConfig struct {
	// TTL is the fixed lifetime of every entry.
	TTL time.Duration

	// SingleFlight collapses concurrent misses on one key into one load.
	// When false, concurrent misses each load and the newest result wins.
	SingleFlight bool

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Stats tracks store activity.
type Stats struct {
	Hits        int64
	Misses      int64
	Loads       int64
	LoadErrors  int64
	Evictions   int64
	Entries     int
	LastCleanup time.Time
}

// Store is a thread-safe TTL cache. The zero value is not usable; call NewStore.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
	ttl     time.Duration
	now     func() time.Time

	singleFlight bool
	group        singleflight.Group

	statsMu sync.Mutex
	stats   Stats
}

// NewStore creates a Store. A non-positive TTL makes every entry expire immediately.
func NewStore[V any](cfg StoreConfig) *Store[V] {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store[V]{
		entries:      make(map[string]Entry[V]),
		ttl:          cfg.TTL,
		now:          now,
		singleFlight: cfg.SingleFlight,
	}
}

// TTL returns the configured lifetime.
func (s *Store[V]) TTL() time.Duration {
	return s.ttl
}

// Get returns the entry for key if it is valid. Expired entries report false.
func (s *Store[V]) Get(key string) (Entry[V], bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || !entry.ValidAt(s.now(), s.ttl) {
		s.record(func(st *Stats) { st.Misses++ })
		return Entry[V]{}, false
	}
	s.record(func(st *Stats) { st.Hits++ })
	return entry, true
}

// Peek returns the entry for key whether or not it has expired, without
// touching statistics.
func (s *Store[V]) Peek(key string) (Entry[V], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

// Set stores value under key with CreatedAt = now.
func (s *Store[V]) Set(key string, value V) Entry[V] {
	entry := Entry[V]{Value: value, CreatedAt: s.now()}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return entry
}

// Delete removes key.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()
	if ok {
		s.record(func(st *Stats) { st.Evictions++ })
	}
}

// Len returns the number of stored entries, including expired ones.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GetOrLoad returns the valid entry for key or loads a new one. cached reports
// whether the value came from the store without a load.
//
// The loader runs detached from ctx cancellation so that one caller giving up
// does not fail a load other callers share; ctx still bounds how long this
// caller waits.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, load Loader[V]) (entry Entry[V], cached bool, err error) {
	if entry, ok := s.Get(key); ok {
		return entry, true, nil
	}

	if !s.singleFlight {
		entry, err := s.loadAndStore(context.WithoutCancel(ctx), key, load)
		return entry, false, err
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		// A flight that finished between our miss and this call may have
		// already refreshed the key.
		if entry, ok := s.Peek(key); ok && entry.ValidAt(s.now(), s.ttl) {
			return entry, nil
		}
		return s.loadAndStore(context.WithoutCancel(ctx), key, load)
	})

	select {
	case <-ctx.Done():
		return Entry[V]{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Entry[V]{}, false, res.Err
		}
		return res.Val.(Entry[V]), false, nil
	}
}

func (s *Store[V]) loadAndStore(ctx context.Context, key string, load Loader[V]) (Entry[V], error) {
	s.record(func(st *Stats) { st.Loads++ })
	value, err := load(ctx, key)
	if err != nil {
		s.record(func(st *Stats) { st.LoadErrors++ })
		return Entry[V]{}, err
	}

	entry := Entry[V]{Value: value, CreatedAt: s.now()}
	s.mu.Lock()
	// Without single-flight two loads can race; keep the newer one.
	if current, ok := s.entries[key]; !ok || !current.CreatedAt.After(entry.CreatedAt) {
		s.entries[key] = entry
	} else {
		entry = current
	}
	s.mu.Unlock()
	return entry, nil
}

// Cleanup removes expired entries and returns the removed keys with their values.
func (s *Store[V]) Cleanup() map[string]V {
	now := s.now()
	removed := make(map[string]V)

	s.mu.Lock()
	for key, entry := range s.entries {
		if !entry.ValidAt(now, s.ttl) {
			removed[key] = entry.Value
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()

	s.record(func(st *Stats) {
		st.Evictions += int64(len(removed))
		st.LastCleanup = now
	})
	return removed
}

// GetStats returns a snapshot of the statistics.
func (s *Store[V]) GetStats() Stats {
	entries := s.Len()
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	snapshot := s.stats
	snapshot.Entries = entries
	return snapshot
}

// HitRate returns hits as a percentage of lookups.
func (s *Store[V]) HitRate() float64 {
	stats := s.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0
	}
	return float64(stats.Hits) / float64(total) * 100
}

func (s *Store[V]) record(fn func(*Stats)) {
	s.statsMu.Lock()
	fn(&s.stats)
	s.statsMu.Unlock()
}
