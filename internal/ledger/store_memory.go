package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	byHash  map[string]int
	byID    map[id.EntryID]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byHash: make(map[string]int),
		byID:   make(map[id.EntryID]int),
	}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byHash[entry.Hash]; exists {
		return sentinel.ErrConflict
	}
	entry.Methods = append([]id.MethodKind(nil), entry.Methods...)
	s.entries = append(s.entries, entry)
	s.byHash[entry.Hash] = len(s.entries) - 1
	s.byID[entry.ID] = len(s.entries) - 1
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, entryID id.EntryID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[entryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEntry(s.entries[idx]), nil
}

func (s *InMemoryStore) FindByHash(_ context.Context, hash string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byHash[hash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEntry(s.entries[idx]), nil
}

func (s *InMemoryStore) ListByIdentity(_ context.Context, identityID id.IdentityID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, entry := range s.entries {
		if entry.IdentityID != nil && *entry.IdentityID == identityID {
			out = append(out, *cloneEntry(entry))
		}
	}
	sortByTimestamp(out)
	return out, nil
}

func (s *InMemoryStore) ListByTimeRange(_ context.Context, from, to time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, entry := range s.entries {
		if !entry.Timestamp.Before(from) && entry.Timestamp.Before(to) {
			out = append(out, *cloneEntry(entry))
		}
	}
	sortByTimestamp(out)
	return out, nil
}

func sortByTimestamp(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
}

func cloneEntry(entry Entry) *Entry {
	out := entry
	out.Methods = append([]id.MethodKind(nil), entry.Methods...)
	if entry.IdentityID != nil {
		identityID := *entry.IdentityID
		out.IdentityID = &identityID
	}
	return &out
}
