package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/drakos74/free-ml/internal/automl"
	"github.com/drakos74/free-ml/internal/frame"
	"github.com/drakos74/free-ml/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrInvalidID is returned for session ids that are not uuids.
var ErrInvalidID = errors.New("invalid session id")

// State is the part of the session kept next to its files.
type State struct {
	Mode   string      `json:"mode"`
	Target string      `json:"target"`
	Task   automl.Task `json:"task"`
}

// Session is the context of one user.
// Callers hold the lock while reading or changing any of the fields.
type Session struct {
	ID string
	State

	// Dataset is the saved dataset.
	Dataset *frame.Frame
	// Pending is the uploaded or cleaned table that has not been saved yet.
	Pending *frame.Frame

	Settings    []automl.Setting
	Leaderboard *automl.Leaderboard
	Model       *automl.Model
	Meta        *automl.Meta

	mutex   sync.Mutex
	touched time.Time
}

func newSession(id string) *Session {
	return &Session{
		ID:      id,
		State:   State{Task: automl.Auto},
		touched: time.Now(),
	}
}

// Lock serializes the operations on the session.
func (s *Session) Lock() {
	s.mutex.Lock()
}

// Unlock releases the session.
func (s *Session) Unlock() {
	s.mutex.Unlock()
}

// Key returns the workspace key of the given file of the session.
func (s *Session) Key(label string) storage.Key {
	return storage.NewKey(s.ID, label)
}

// Reset drops the per-run tables.
func (s *Session) Reset() {
	s.Settings = nil
	s.Leaderboard = nil
}

// Manager keeps the active sessions in memory.
type Manager struct {
	ws        storage.Workspace
	maxAge    time.Duration
	mutex     sync.Mutex
	sessions  map[string]*Session
	restoring map[string]*restoration
	now       func() time.Time
}

// restoration is a session being loaded from the workspace.
type restoration struct {
	done    chan struct{}
	session *Session
	err     error
}

// NewManager creates a session manager over the workspace.
// Sessions idle for longer than maxAge are evicted from memory, zero keeps them forever.
func NewManager(ws storage.Workspace, maxAge time.Duration) *Manager {
	return &Manager{
		ws:        ws,
		maxAge:    maxAge,
		sessions:  make(map[string]*Session),
		restoring: make(map[string]*restoration),
		now:       time.Now,
	}
}

// Workspace returns the storage of the sessions.
func (m *Manager) Workspace() storage.Workspace {
	return m.ws
}

// New creates a fresh session.
func (m *Manager) New() *Session {
	s := newSession(uuid.New().String())
	s.touched = m.now()
	m.mutex.Lock()
	m.sessions[s.ID] = s
	m.mutex.Unlock()
	log.Info().Str("session", s.ID).Msg("new session")
	return s
}

// Get returns the session with the given id.
// A session that is not in memory is restored from its workspace,
// concurrent calls for the same id wait for the one restoring it.
func (m *Manager) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("'%s': %w", id, ErrInvalidID)
	}
	m.mutex.Lock()
	if s, ok := m.sessions[id]; ok {
		s.touched = m.now()
		m.mutex.Unlock()
		return s, nil
	}
	if r, ok := m.restoring[id]; ok {
		m.mutex.Unlock()
		<-r.done
		return r.session, r.err
	}
	r := &restoration{done: make(chan struct{})}
	m.restoring[id] = r
	m.mutex.Unlock()

	s := newSession(id)
	err := m.restore(s)

	m.mutex.Lock()
	delete(m.restoring, id)
	if err == nil {
		s.touched = m.now()
		m.sessions[id] = s
		r.session = s
	}
	r.err = err
	m.mutex.Unlock()
	close(r.done)
	return r.session, r.err
}

// Resolve returns the session with the id, or a new one when the id is empty or unknown.
func (m *Manager) Resolve(id string) *Session {
	if id != "" {
		s, err := m.Get(id)
		if err == nil {
			return s
		}
		log.Warn().Err(err).Str("session", id).Msg("could not resume session")
	}
	return m.New()
}

func (m *Manager) restore(s *Session) error {
	var state State
	err := m.ws.Load(s.Key(storage.StateFile), &state)
	switch {
	case err == nil:
		s.State = state
	case !errors.Is(err, storage.NotFoundErr):
		return fmt.Errorf("could not restore state of '%s': %w", s.ID, err)
	}

	f, err := LoadDataset(m.ws, s.ID)
	switch {
	case err == nil:
		s.Dataset = f
	case !errors.Is(err, storage.NotFoundErr):
		return fmt.Errorf("could not restore dataset of '%s': %w", s.ID, err)
	}

	model, err := LoadModel(m.ws, s.ID)
	switch {
	case err == nil:
		meta := model.Artifact.Meta()
		if err := m.ws.Load(s.Key(storage.MetaFile), &meta); err != nil && !errors.Is(err, storage.NotFoundErr) {
			return fmt.Errorf("could not restore model metadata of '%s': %w", s.ID, err)
		}
		s.Model = model
		s.Meta = &meta
	case !errors.Is(err, storage.NotFoundErr):
		// a broken artifact only costs the download
		log.Error().Err(err).Str("session", s.ID).Msg("could not restore model")
	}

	if s.Dataset != nil || s.Model != nil {
		log.Info().
			Str("session", s.ID).
			Bool("dataset", s.Dataset != nil).
			Bool("model", s.Model != nil).
			Msg("restored session")
	}
	return nil
}

// Persist stores the state of the session. The caller holds the session lock.
func (m *Manager) Persist(s *Session) error {
	if err := m.ws.Store(s.Key(storage.StateFile), s.State); err != nil {
		return fmt.Errorf("could not persist session '%s': %w", s.ID, err)
	}
	return nil
}

// Evict drops the sessions idle for longer than the max age and returns how many were dropped.
func (m *Manager) Evict() int {
	if m.maxAge <= 0 {
		return 0
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	now := m.now()
	var n int
	for id, s := range m.sessions {
		if now.Sub(s.touched) > m.maxAge {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		log.Info().Int("evicted", n).Int("active", len(m.sessions)).Msg("evicted idle sessions")
	}
	return n
}

// Len returns the number of sessions in memory.
func (m *Manager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.sessions)
}

// Run evicts idle sessions at the given interval until the context is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if m.maxAge <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Evict()
		}
	}
}
