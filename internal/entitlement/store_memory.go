package entitlement

import (
	"context"
	"sync"
	"time"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

type pairKey struct {
	identity id.IdentityID
	location id.LocationID
}

type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[pairKey]Entitlement
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[pairKey]Entitlement)}
}

// Save inserts or replaces a single row. Seeding hook for tests and dev mode.
func (s *InMemoryStore) Save(_ context.Context, ent Entitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[pairKey{ent.IdentityID, ent.LocationID}] = ent
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, identityID id.IdentityID, locationID id.LocationID) (*Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ent, ok := s.rows[pairKey{identityID, locationID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := ent
	return &out, nil
}

func (s *InMemoryStore) ListByIdentity(_ context.Context, identityID id.IdentityID) ([]Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entitlement
	for key, ent := range s.rows {
		if key.identity == identityID {
			out = append(out, ent)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ReplaceForIdentity(_ context.Context, identityID id.IdentityID, entitlements []Entitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.rows {
		if key.identity == identityID {
			delete(s.rows, key)
		}
	}
	for _, ent := range entitlements {
		ent.IdentityID = identityID
		s.rows[pairKey{identityID, ent.LocationID}] = ent
	}
	return nil
}

func (s *InMemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, ent := range s.rows {
		if ent.ExpiresAt != nil && ent.ExpiresAt.Before(cutoff) {
			delete(s.rows, key)
			removed++
		}
	}
	return removed, nil
}
