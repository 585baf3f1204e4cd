package flow

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDuplicateSession is returned by Create when the id is already live.
var ErrDuplicateSession = errors.New("flow: duplicate session id")

// ErrInvariantViolation is returned by FindAwaitingReply when more than one
// session carries the awaiting flag. It indicates a router bug and must
// never be tolerated silently.
var ErrInvariantViolation = errors.New("flow: more than one session awaiting operator reply")

// Store is the in-memory session map, the sole source of truth for live
// session state. It performs no business logic; all field mutation happens
// through Machine.Apply while the router holds the processing sequence.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create inserts a new session in the initial state.
func (s *Store) Create(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, id)
	}
	sess := NewSession(id)
	s.sessions[id] = sess
	return sess, nil
}

// Get returns the session for id, or nil if absent. Absence is not an
// error: callers treat it as "ignore event".
func (s *Store) Get(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// Remove deletes the session for id, if present.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// FindAwaitingReply returns the single session flagged AwaitingAdminReply,
// or nil if none. More than one flagged session is an invariant violation.
func (s *Store) FindAwaitingReply() (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *Session
	for _, sess := range s.sessions {
		if !sess.AwaitingAdminReply {
			continue
		}
		if found != nil {
			return nil, ErrInvariantViolation
		}
		found = sess
	}
	return found, nil
}

// ReleaseOthers clears the awaiting flag on every session except id. Called
// after a transition flags a session, so the most recently flagged session
// is the only one that can absorb the next operator free-text message.
func (s *Store) ReleaseOthers(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.ID != id {
			sess.AwaitingAdminReply = false
		}
	}
}

// IdleSessions returns the ids of sessions whose last activity is before
// cutoff. Used by the sweep policy; the store itself never evicts.
func (s *Store) IdleSessions(cutoff time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}
