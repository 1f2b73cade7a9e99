// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/cohortscope/internal/cohort"
	"github.com/tomtom215/cohortscope/internal/logging"
	"github.com/tomtom215/cohortscope/internal/metrics"
	"github.com/tomtom215/cohortscope/internal/models"
)

// DatasetProvider returns shared datasets. *cache.DatasetCache implements it.
type DatasetProvider interface {
	GetDataset(ctx context.Context, name string) (*models.Dataset, bool, error)
}

// Generator runs one analysis. *cohort.Orchestrator implements it.
type Generator interface {
	Generate(ctx context.Context, data *models.Dataset, req cohort.AnalysisRequest) (*cohort.Result, error)
}

// Config bounds the registry.
type Config struct {
	// IdleTimeout expires sessions unused for this long. Zero disables expiry.
	IdleTimeout time.Duration

	// MaxSessions caps the registry size. Zero means unlimited.
	MaxSessions int

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Manager is the process-wide session registry.
type Manager struct {
	datasets  DatasetProvider
	generator Generator
	cfg       Config
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager.
func NewManager(datasets DatasetProvider, generator Generator, cfg Config) *Manager {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		datasets:  datasets,
		generator: generator,
		cfg:       cfg,
		now:       now,
		sessions:  make(map[string]*Session),
	}
}

// Create registers a new empty session.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}
	s := newSession(uuid.NewString(), m.now())
	m.sessions[s.ID] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))

	logging.Debug().Str("session_id", s.ID).Msg("Session created")
	return s, nil
}

// Get returns a live session and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := m.now()
	if m.expired(s, now) {
		m.remove(id, true)
		return nil, ErrSessionNotFound
	}
	s.touch(now)
	return s, nil
}

// Delete ends a session. Unknown ids report ErrSessionNotFound.
func (m *Manager) Delete(id string) error {
	if !m.remove(id, false) {
		return ErrSessionNotFound
	}
	logging.Debug().Str("session_id", id).Msg("Session deleted")
	return nil
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns registered session ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Reap removes sessions idle past the timeout and returns how many it removed.
func (m *Manager) Reap() int {
	if m.cfg.IdleTimeout <= 0 {
		return 0
	}
	now := m.now()

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if m.expired(s, now) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if len(expired) > 0 {
		metrics.SessionsExpired.Add(float64(len(expired)))
		logging.Info().Int("expired", len(expired)).Msg("Reaped idle sessions")
	}
	return len(expired)
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.cfg.IdleTimeout > 0 && now.Sub(s.LastSeen()) >= m.cfg.IdleTimeout
}

func (m *Manager) remove(id string, expired bool) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()
	if ok && expired {
		metrics.SessionsExpired.Inc()
	}
	return ok
}

// LoadDataset makes name the active dataset of session id. A load failure
// leaves the session unchanged.
func (m *Manager) LoadDataset(ctx context.Context, id, name string) (Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.cmd.Lock()
	defer s.cmd.Unlock()
	ctx = logging.ContextWithSessionID(ctx, id)

	ds, cached, err := m.datasets.GetDataset(ctx, name)
	if err != nil {
		return Snapshot{}, err
	}

	previous := s.Dataset()
	s.SetActiveDataset(ds)

	event := logging.Ctx(ctx).Info().
		Str("dataset", name).
		Uint64("generation", ds.Generation).
		Bool("cached", cached)
	if previous != nil && previous.Name != name {
		event = event.Str("previous_dataset", previous.Name)
	}
	event.Msg("Active dataset set")
	return s.Snapshot(), nil
}

// Generate runs an analysis on the active dataset and stores the result.
// Absent date or customer columns default to the auto-detected ones. On any
// failure the previously stored result is kept.
func (m *Manager) Generate(ctx context.Context, id string, opts cohort.Options) (*cohort.Result, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	s.cmd.Lock()
	defer s.cmd.Unlock()
	return m.generate(logging.ContextWithSessionID(ctx, id), s, opts)
}

func (m *Manager) generate(ctx context.Context, s *Session, opts cohort.Options) (*cohort.Result, error) {
	ds := s.Dataset()
	if ds == nil {
		return nil, ErrNoDataset
	}
	ds = m.refresh(ctx, s, ds)

	detected := s.Detected()
	if !opts.DateColumn.IsSet() {
		opts.DateColumn = detected.Date
	}
	if !opts.CustomerColumn.IsSet() {
		opts.CustomerColumn = detected.Customer
	}

	req, err := cohort.NewRequest(opts)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{req.DateColumn, req.CustomerColumn, req.ValueColumn.OrElse(req.DateColumn)} {
		if !ds.HasColumn(col) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}

	res, err := m.generator.Generate(ctx, ds, req)
	if err != nil {
		return nil, err
	}
	s.SetResult(res)
	return res, nil
}

// refresh swaps the session onto the cache's current generation of its
// dataset. If the cache cannot produce one the session keeps the generation
// it holds.
func (m *Manager) refresh(ctx context.Context, s *Session, ds *models.Dataset) *models.Dataset {
	fresh, _, err := m.datasets.GetDataset(ctx, ds.Name)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("dataset", ds.Name).
			Uint64("generation", ds.Generation).
			Msg("Dataset refresh failed, using the session's generation")
		return ds
	}
	if fresh != ds {
		s.SetActiveDataset(fresh)
	}
	return fresh
}

// Reset drops the stored result. The next EnsureResult regenerates with defaults.
func (m *Manager) Reset(id string) (Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.cmd.Lock()
	defer s.cmd.Unlock()
	s.InvalidateResults()
	return s.Snapshot(), nil
}

// EnsureResult returns the stored result, generating one with default
// options first when the session has a dataset but no result yet.
func (m *Manager) EnsureResult(ctx context.Context, id string) (*cohort.Result, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	s.cmd.Lock()
	defer s.cmd.Unlock()

	if res := s.Result(); res != nil {
		return res, nil
	}
	if s.Dataset() == nil {
		return nil, ErrNoDataset
	}
	detected := s.Detected()
	opts := cohort.DefaultOptions(detected.Date, detected.Customer)
	if !opts.CanGenerate() {
		return nil, cohort.ErrCannotGenerate
	}
	return m.generate(logging.ContextWithSessionID(ctx, id), s, opts)
}
