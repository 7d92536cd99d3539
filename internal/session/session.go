// Package session keeps the per-caller conversational state: a bounded
// history and the knowledge base the session answers from.
package session

import (
	"sync"
	"time"

	"github.com/xaenox/bizchat/internal/knowledge"
	"github.com/xaenox/bizchat/internal/models"
)

// Session is the state behind one caller-supplied session id. Requests for
// the same session are serialized through Lock/Unlock; different sessions
// never contend.
type Session struct {
	ID         string
	InstanceID string // unique per creation, for log correlation
	CreatedAt  time.Time

	mu      sync.Mutex
	history *History
	kb      *knowledge.Base
}

func newSession(id, instanceID string, kb *knowledge.Base, maxHistory int, now time.Time) *Session {
	return &Session{
		ID:         id,
		InstanceID: instanceID,
		CreatedAt:  now,
		history:    NewHistory(maxHistory),
		kb:         kb,
	}
}

// Lock acquires exclusive access to the conversation state.
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the lock taken by Lock.
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// History returns the live history. The caller must hold the lock.
func (s *Session) History() *History {
	return s.history
}

// Record appends a turn. The caller must hold the lock.
func (s *Session) Record(turn models.Turn) {
	s.history.Append(turn)
}

// KnowledgeBase returns the base pinned at creation. Bases are immutable, so
// no lock is needed.
func (s *Session) KnowledgeBase() *knowledge.Base {
	return s.kb
}

// Turns returns a snapshot of the history.
func (s *Session) Turns() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Turns()
}

// ClearHistory empties the history; the session stays usable.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Clear()
}
