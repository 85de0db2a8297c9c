package identity

import (
	"context"
	"sync"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

// InMemoryStore keeps identities in a map. Used in tests and in local
// development when no database is configured.
type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[id.IdentityID]Identity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{identities: make(map[id.IdentityID]Identity)}
}

// Save inserts or replaces an identity. Seeding hook for tests and dev mode.
func (s *InMemoryStore) Save(_ context.Context, ident Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[ident.ID] = ident
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, identityID id.IdentityID) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.identities[identityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(ident), nil
}

func (s *InMemoryStore) FindByQRToken(_ context.Context, token string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ident := range s.identities {
		if ident.Active && ident.QRToken == token {
			return clone(ident), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByPIN(_ context.Context, pin string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ident := range s.identities {
		if ident.Active && ident.PIN == pin {
			return clone(ident), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListActiveWithEmbeddings(_ context.Context) ([]Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Identity, 0, len(s.identities))
	for _, ident := range s.identities {
		if ident.Active && ident.HasEmbedding() {
			out = append(out, *clone(ident))
		}
	}
	return out, nil
}

// clone copies the identity so callers cannot mutate stored embeddings.
func clone(ident Identity) *Identity {
	out := ident
	out.FaceEmbedding = append([]float64(nil), ident.FaceEmbedding...)
	return &out
}
