package session

import (
	"context"
	"sync"
	"time"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[id.SessionID]*Session)}
}

func (s *InMemoryStore) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sess.ID]; exists {
		return sentinel.ErrConflict
	}
	sess.Version = 1
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, sessionID id.SessionID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[sess.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != sess.Version {
		return sentinel.ErrConflict
	}
	sess.Version++
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *InMemoryStore) ListIdleSince(_ context.Context, cutoff time.Time) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Session
	for _, sess := range s.sessions {
		if !sess.Terminal() && sess.LastActivityAt.Before(cutoff) {
			out = append(out, *sess.Clone())
		}
	}
	return out, nil
}
