package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/claude/fittracker/internal/storage"
)

// ErrNoActiveWorkout is returned when no session is open.
var ErrNoActiveWorkout = errors.New("no active workout")

// Manager keeps at most one open workout session, matching the single
// stored resume record.
type Manager struct {
	store Store
	log   *slog.Logger
	opts  Options

	mu      sync.Mutex
	current *Session
}

func NewManager(store Store, log *slog.Logger, opts Options) *Manager {
	return &Manager{store: store, log: log, opts: opts}
}

// Open returns the session for sessionID, opening it if needed. Opening a
// different session closes the current one; its resume record is replaced
// once the new session starts. A cached session that has finished, or
// whose stored status changed behind it, is reloaded.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.ID() == sessionID && !m.current.isClosed() {
		fresh, err := m.isFresh(ctx, m.current)
		if err != nil {
			return nil, err
		}
		if fresh {
			return m.current, nil
		}
		m.current.Close()
		m.current = nil
	}
	s, err := Open(ctx, m.store, m.log, sessionID, m.opts)
	if err != nil {
		return nil, err
	}
	if m.current != nil {
		m.current.Close()
	}
	m.current = s
	return s, nil
}

func (m *Manager) isFresh(ctx context.Context, s *Session) (bool, error) {
	status, finished := s.state()
	if finished {
		return false, nil
	}
	stored, err := m.store.GetSessionInstance(ctx, s.ID())
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading session %s: %w", s.ID(), err)
	}
	return stored.Status == status, nil
}

// Release drops sessionID if it is the open session, stopping its timer
// and clearing the resume record, so the stored instance can be changed
// from outside the workout. A resume record left for sessionID without an
// open session is cleared as well.
func (m *Manager) Release(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	s := m.current
	if s != nil && s.ID() == sessionID {
		m.current = nil
	} else {
		s = nil
	}
	m.mu.Unlock()

	if s != nil {
		return s.Exit(ctx)
	}
	st, err := m.store.LoadActiveWorkoutState(ctx)
	if err != nil {
		return fmt.Errorf("loading active workout: %w", err)
	}
	if st != nil && st.SessionID == sessionID {
		return m.store.ClearActiveWorkoutState(ctx)
	}
	return nil
}

// Current returns the open session, or ErrNoActiveWorkout.
func (m *Manager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.isClosed() {
		return nil, ErrNoActiveWorkout
	}
	return m.current, nil
}

// Resume opens the session named by the stored resume record, if any.
func (m *Manager) Resume(ctx context.Context) (*Session, error) {
	st, err := m.store.LoadActiveWorkoutState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active workout: %w", err)
	}
	if st == nil {
		return nil, ErrNoActiveWorkout
	}
	s, err := m.Open(ctx, st.SessionID)
	if errors.Is(err, ErrSessionNotFound) {
		// the session was deleted after the record was written
		if err := m.store.ClearActiveWorkoutState(ctx); err != nil {
			m.log.Warn("clearing stale active workout", "error", err)
		}
		return nil, ErrNoActiveWorkout
	}
	return s, err
}

// Exit leaves the open workout and clears the resume record.
func (m *Manager) Exit(ctx context.Context) error {
	m.mu.Lock()
	s := m.current
	m.current = nil
	m.mu.Unlock()
	if s == nil {
		return ErrNoActiveWorkout
	}
	return s.Exit(ctx)
}

// Close stops the open session's timer, keeping its resume record.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
}
