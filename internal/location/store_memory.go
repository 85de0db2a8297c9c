package location

import (
	"context"
	"sync"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	locations map[id.LocationID]Location
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{locations: make(map[id.LocationID]Location)}
}

// Save inserts or replaces a location. Seeding hook for tests and dev mode.
func (s *InMemoryStore) Save(_ context.Context, loc Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc.EntryMethods = loc.EntryMethods.Clone()
	loc.ExitMethods = loc.ExitMethods.Clone()
	s.locations[loc.ID] = loc
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, locationID id.LocationID) (*Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locations[locationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := loc
	out.EntryMethods = loc.EntryMethods.Clone()
	out.ExitMethods = loc.ExitMethods.Clone()
	return &out, nil
}
