// Package session provides session persistence backends.
package session

import (
	"errors"
	"sync"

	"github.com/hupe1980/debateforge/core"
)

// ErrNotFound is returned when a session id is unknown to the store.
var ErrNotFound = errors.New("session not found")

// InMemoryStore keeps live session pointers in memory. Put registers the
// live session; Get returns a deep snapshot so callers can never mutate a
// running debate.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Put registers the session under its id.
func (s *InMemoryStore) Put(sess *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// Get returns a snapshot of the session or ErrNotFound.
func (s *InMemoryStore) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

var _ core.SessionStore = (*InMemoryStore)(nil)
