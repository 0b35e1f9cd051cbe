package store

import (
	"context"
	"sync"

	"github.com/m3rciful/quizbot/quiz"
)

// Memory keeps sessions in process memory. Suitable for development and tests.
type Memory struct {
	mu       sync.RWMutex
	sessions map[int64]*quiz.Session
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[int64]*quiz.Session),
	}
}

// Load returns a copy of the stored session or a fresh one.
func (m *Memory) Load(_ context.Context, userID int64) (*quiz.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[userID]; ok {
		out := s.Clone()
		out.Bind(m)
		return out, nil
	}
	return quiz.NewSession(userID, m), nil
}

// Save stores a copy of the session.
func (m *Memory) Save(_ context.Context, s *quiz.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = s.Clone()
	return nil
}

// Delete removes the session of a user.
func (m *Memory) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Count returns the number of stored sessions.
func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}
