package kiosk

import (
	"context"
	"sync"
	"time"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	kiosks map[id.KioskID]*Kiosk
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{kiosks: make(map[id.KioskID]*Kiosk)}
}

func (s *InMemoryStore) Create(_ context.Context, k *Kiosk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.kiosks[k.ID]; exists {
		return sentinel.ErrConflict
	}
	s.kiosks[k.ID] = k.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, kioskID id.KioskID) (*Kiosk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.kiosks[kioskID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return k.Clone(), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Kiosk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Kiosk, 0, len(s.kiosks))
	for _, k := range s.kiosks {
		out = append(out, *k.Clone())
	}
	return out, nil
}

func (s *InMemoryStore) Touch(_ context.Context, kioskID id.KioskID, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.kiosks[kioskID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if seenAt.After(k.LastSeenAt) {
		k.LastSeenAt = seenAt
	}
	return nil
}

func (s *InMemoryStore) DeactivateUnseenSince(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, k := range s.kiosks {
		if k.Active && k.LastSeenAt.Before(cutoff) {
			k.Active = false
			count++
		}
	}
	return count, nil
}
