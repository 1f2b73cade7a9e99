// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package session

import (
	"sync"
	"time"

	"github.com/tomtom215/cohortscope/internal/cohort"
	"github.com/tomtom215/cohortscope/internal/models"
	"github.com/tomtom215/cohortscope/internal/schema"
)

// State is the externally visible phase of a session.
type State string

const (
	StateNoDataset     State = "no_dataset"
	StateDatasetLoaded State = "dataset_loaded"
	StateResultReady   State = "result_ready"
)

// Session is one user's analysis context. Accessors are safe for concurrent
// use; the Manager also serializes whole commands per session.
type Session struct {
	ID        string
	CreatedAt time.Time

	// cmd serializes commands on this session.
	cmd sync.Mutex

	mu       sync.RWMutex
	lastSeen time.Time
	dataset  *models.Dataset
	detected schema.Columns
	request  *cohort.AnalysisRequest
	result   *cohort.Result
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now, lastSeen: now}
}

// SetActiveDataset makes ds the active dataset. Results computed against a
// different dataset identity are dropped first. Re-activating the same
// identity (a newer generation after cache expiry) keeps the result.
func (s *Session) SetActiveDataset(ds *models.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset == nil || ds == nil || s.dataset.Name != ds.Name {
		s.invalidateLocked()
	}
	s.dataset = ds
	if ds != nil {
		s.detected = schema.AutoDetect(ds.Name, ds.Columns)
	} else {
		s.detected = schema.Columns{}
	}
}

// InvalidateResults drops the stored result and the request that produced it.
func (s *Session) InvalidateResults() {
	s.mu.Lock()
	s.invalidateLocked()
	s.mu.Unlock()
}

func (s *Session) invalidateLocked() {
	s.result = nil
	s.request = nil
}

// SetResult replaces the stored result wholesale.
func (s *Session) SetResult(res *cohort.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = res
	if res != nil {
		req := res.Request
		s.request = &req
	} else {
		s.request = nil
	}
}

// Result returns the stored result, or nil.
func (s *Session) Result() *cohort.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Dataset returns the active dataset, or nil.
func (s *Session) Dataset() *models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Detected returns the auto-detected columns of the active dataset.
func (s *Session) Detected() schema.Columns {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detected
}

// State reports the current phase.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.dataset == nil:
		return StateNoDataset
	case s.result == nil:
		return StateDatasetLoaded
	default:
		return StateResultReady
	}
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	if now.After(s.lastSeen) {
		s.lastSeen = now
	}
	s.mu.Unlock()
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID          string                  `json:"id"`
	State       State                   `json:"state"`
	Dataset     string                  `json:"dataset,omitempty"`
	Generation  uint64                  `json:"generation,omitempty"`
	Columns     []string                `json:"columns"`
	Detected    schema.Columns          `json:"detected"`
	LastRequest *cohort.AnalysisRequest `json:"last_request"`
	HasResult   bool                    `json:"has_result"`
	CreatedAt   time.Time               `json:"created_at"`
	LastSeen    time.Time               `json:"last_seen"`
}

// Snapshot captures the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		ID:        s.ID,
		Columns:   []string{},
		Detected:  s.detected,
		HasResult: s.result != nil,
		CreatedAt: s.CreatedAt,
		LastSeen:  s.lastSeen,
	}
	switch {
	case s.dataset == nil:
		snap.State = StateNoDataset
	case s.result == nil:
		snap.State = StateDatasetLoaded
	default:
		snap.State = StateResultReady
	}
	if s.dataset != nil {
		snap.Dataset = s.dataset.Name
		snap.Generation = s.dataset.Generation
		snap.Columns = append(snap.Columns, s.dataset.Columns...)
	}
	if s.request != nil {
		req := *s.request
		snap.LastRequest = &req
	}
	return snap
}
