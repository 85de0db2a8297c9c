package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore

	alice id.IdentityID
	bob   id.IdentityID
	gate  id.LocationID
	lab   id.LocationID
	dock  id.LocationID
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()

	s.alice = id.IdentityID(uuid.New())
	s.bob = id.IdentityID(uuid.New())
	s.gate = id.LocationID(uuid.New())
	s.lab = id.LocationID(uuid.New())
	s.dock = id.LocationID(uuid.New())

	s.Require().NoError(s.store.Save(s.ctx, Entitlement{IdentityID: s.alice, LocationID: s.gate}))
	s.Require().NoError(s.store.Save(s.ctx, Entitlement{IdentityID: s.alice, LocationID: s.lab}))
	s.Require().NoError(s.store.Save(s.ctx, Entitlement{IdentityID: s.bob, LocationID: s.gate}))
}

func (s *InMemoryStoreSuite) TestReplaceForIdentity() {
	s.Run("swaps the whole set", func() {
		expires := time.Now().Add(time.Hour)
		err := s.store.ReplaceForIdentity(s.ctx, s.alice, []Entitlement{
			{LocationID: s.dock, ExpiresAt: &expires},
		})
		s.Require().NoError(err)

		_, err = s.store.Find(s.ctx, s.alice, s.gate)
		s.Require().ErrorIs(err, sentinel.ErrNotFound, "row absent from the new set must be gone")
		_, err = s.store.Find(s.ctx, s.alice, s.lab)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		ent, err := s.store.Find(s.ctx, s.alice, s.dock)
		s.Require().NoError(err)
		s.Equal(s.alice, ent.IdentityID)
		s.Require().NotNil(ent.ExpiresAt)
		s.True(expires.Equal(*ent.ExpiresAt))
	})

	s.Run("leaves other identities untouched", func() {
		s.Require().NoError(s.store.ReplaceForIdentity(s.ctx, s.alice, nil))

		ent, err := s.store.Find(s.ctx, s.bob, s.gate)
		s.Require().NoError(err)
		s.Equal(s.bob, ent.IdentityID)
	})

	s.Run("empty set revokes everything for the identity", func() {
		s.Require().NoError(s.store.ReplaceForIdentity(s.ctx, s.alice, nil))

		rows, err := s.store.ListByIdentity(s.ctx, s.alice)
		s.Require().NoError(err)
		s.Empty(rows)
	})

	s.Run("stamps the identity onto every new row", func() {
		err := s.store.ReplaceForIdentity(s.ctx, s.alice, []Entitlement{
			{IdentityID: s.bob, LocationID: s.dock},
		})
		s.Require().NoError(err)

		ent, err := s.store.Find(s.ctx, s.alice, s.dock)
		s.Require().NoError(err)
		s.Equal(s.alice, ent.IdentityID)
	})
}

func (s *InMemoryStoreSuite) TestDeleteExpired() {
	lapsed := time.Now().Add(-time.Minute)
	s.Require().NoError(s.store.Save(s.ctx, Entitlement{
		IdentityID: s.bob, LocationID: s.lab, ExpiresAt: &lapsed,
	}))

	removed, err := s.store.DeleteExpired(s.ctx, time.Now())
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.store.Find(s.ctx, s.bob, s.lab)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// Open-ended grants never expire.
	_, err = s.store.Find(s.ctx, s.alice, s.gate)
	s.Require().NoError(err)
}
