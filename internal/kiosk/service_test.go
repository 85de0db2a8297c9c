package kiosk

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kioskgate/internal/kiosk/secrets"
	"kioskgate/internal/location"
	"kioskgate/internal/token"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
)

type KioskServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *InMemoryStore
	locations *location.InMemoryStore
	service   *Service
	tokens    *token.Manager

	gate id.LocationID
}

func TestKioskServiceSuite(t *testing.T) {
	suite.Run(t, new(KioskServiceSuite))
}

func (s *KioskServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.locations = location.NewInMemoryStore()
	s.gate = id.LocationID(uuid.New())
	s.Require().NoError(s.locations.Save(s.ctx, location.Location{
		ID:           s.gate,
		Name:         "Main Gate",
		EntryMethods: id.NewMethodSet(id.MethodQR),
	}))

	s.tokens = token.NewManager("test-signing-key", time.Hour)
	var err error
	s.service, err = NewService(s.store, s.locations, s.tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
}

func (s *KioskServiceSuite) enroll() *Enrollment {
	enrollment, err := s.service.Register(s.ctx, "Lobby Kiosk", s.gate)
	s.Require().NoError(err)
	return enrollment
}

func (s *KioskServiceSuite) TestRegister() {
	s.Run("returns the plaintext secret once and stores only a hash", func() {
		enrollment := s.enroll()
		s.NotEmpty(enrollment.Secret)

		stored, err := s.store.FindByID(s.ctx, enrollment.Kiosk.ID)
		s.Require().NoError(err)
		s.NotEqual(enrollment.Secret, stored.SecretHash)
		s.Require().NoError(secrets.Verify(enrollment.Secret, stored.SecretHash))
	})

	s.Run("rejects an unknown location", func() {
		_, err := s.service.Register(s.ctx, "Stray Kiosk", id.LocationID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejects a blank name", func() {
		_, err := s.service.Register(s.ctx, "   ", s.gate)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *KioskServiceSuite) TestAuthenticate() {
	enrollment := s.enroll()

	s.Run("exchanges a valid secret for a kiosk token", func() {
		grant, err := s.service.Authenticate(s.ctx, enrollment.Kiosk.ID, enrollment.Secret)
		s.Require().NoError(err)

		claims, err := s.tokens.Validate(grant.Token)
		s.Require().NoError(err)
		s.Equal(string(token.RoleKiosk), claims.Role)
		s.Equal(enrollment.Kiosk.ID.String(), claims.KioskID)
	})

	s.Run("rejects a wrong secret", func() {
		_, err := s.service.Authenticate(s.ctx, enrollment.Kiosk.ID, "not-the-secret")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects an unknown kiosk with the same code as a bad secret", func() {
		_, err := s.service.Authenticate(s.ctx, id.NewKioskID(), enrollment.Secret)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects a deactivated kiosk", func() {
		_, err := s.store.DeactivateUnseenSince(s.ctx, time.Now().Add(time.Hour))
		s.Require().NoError(err)

		_, err = s.service.Authenticate(s.ctx, enrollment.Kiosk.ID, enrollment.Secret)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *KioskServiceSuite) TestHeartbeatAndPrune() {
	enrollment := s.enroll()

	s.Run("heartbeat keeps the kiosk active through a prune", func() {
		s.Require().NoError(s.service.Heartbeat(s.ctx, enrollment.Kiosk.ID))

		pruned, err := s.service.PruneOffline(s.ctx, time.Hour)
		s.Require().NoError(err)
		s.Zero(pruned)
	})

	s.Run("silent kiosks are deactivated", func() {
		pruned, err := s.service.PruneOffline(s.ctx, 0)
		s.Require().NoError(err)
		s.Equal(1, pruned)

		stored, err := s.store.FindByID(s.ctx, enrollment.Kiosk.ID)
		s.Require().NoError(err)
		s.False(stored.Active)
	})

	s.Run("heartbeat for an unknown kiosk fails", func() {
		err := s.service.Heartbeat(s.ctx, id.NewKioskID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
