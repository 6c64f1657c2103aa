package quiz

import (
	"sync"
	"time"
)

// Flow tells how a question was presented.
type Flow string

const (
	FlowText   Flow = "text"
	FlowButton Flow = "button"
)

// Session is the one outstanding question of a user.
type Session struct {
	Question *Question
	Started  time.Time
	Flow     Flow
}

// SessionStore keeps at most one session per user. Take and TakeIf read and
// delete under one lock, so a session is consumed at most once.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session)}
}

// Put stores s for userID, discarding any previous session. It reports
// whether one was replaced.
func (s *SessionStore) Put(userID string, sess Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, replaced := s.sessions[userID]
	s.sessions[userID] = sess
	return replaced
}

// Take removes and returns the session of userID.
func (s *SessionStore) Take(userID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
	}
	return sess, ok
}

// TakeIf removes the session of userID only when it still holds questionID.
func (s *SessionStore) TakeIf(userID, questionID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok || sess.Question.ID != questionID {
		return Session{}, false
	}
	delete(s.sessions, userID)
	return sess, true
}

// Peek returns the session of userID without consuming it.
func (s *SessionStore) Peek(userID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
