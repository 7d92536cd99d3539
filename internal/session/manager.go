package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/bizchat/internal/knowledge"
	"go.uber.org/zap"
)

// BaseFactory supplies the knowledge base for a new session.
type BaseFactory func(ctx context.Context) (*knowledge.Base, error)

// Manager maps session ids to their state. Sessions are created lazily and
// live until the process exits.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	newBase    BaseFactory
	maxHistory int
	logger     *zap.Logger

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

func NewManager(newBase BaseFactory, maxHistory int, logger *zap.Logger) *Manager {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Manager{
		sessions:   make(map[string]*Session),
		newBase:    newBase,
		maxHistory: maxHistory,
		logger:     logger,
		now:        time.Now,
	}
}

// GetOrCreate returns the session for id, creating it on first use. The
// knowledge base is built outside the map lock; when two callers race on a
// new id, the first to insert wins and both receive the same session.
func (m *Manager) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	if s, ok := m.Get(id); ok {
		return s, nil
	}

	kb, err := m.newBase(ctx)
	if err != nil {
		return nil, fmt.Errorf("building knowledge base for session %q: %w", id, err)
	}
	created := newSession(id, uuid.NewString(), kb, m.maxHistory, m.now())

	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[id] = created
	total := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("Session created",
		zap.String("session_id", id),
		zap.String("instance_id", created.InstanceID),
		zap.Int("intents", kb.Len()),
		zap.Int("sessions", total))
	return created, nil
}

// Get returns the session for id without creating it.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Clear empties the history of an existing session. It reports false, and
// changes nothing, when the id is unknown.
func (m *Manager) Clear(id string) bool {
	s, ok := m.Get(id)
	if !ok {
		m.logger.Debug("Clear requested for unknown session", zap.String("session_id", id))
		return false
	}
	s.ClearHistory()
	m.logger.Info("Session history cleared", zap.String("session_id", id))
	return true
}

// Len returns the number of sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
