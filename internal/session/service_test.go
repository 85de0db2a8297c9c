package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kioskgate/internal/entitlement"
	"kioskgate/internal/identity"
	"kioskgate/internal/ledger"
	"kioskgate/internal/location"
	"kioskgate/internal/policy"
	"kioskgate/internal/verify"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
	"kioskgate/pkg/platform/sentinel"
)

type SessionServiceSuite struct {
	suite.Suite
	ctx context.Context

	identities   *identity.InMemoryStore
	locations    *location.InMemoryStore
	entitlements *entitlement.InMemoryStore
	ledgerStore  *ledger.InMemoryStore
	sessions     *InMemoryStore
	service      *Service

	alice id.IdentityID
	bob   id.IdentityID
	gate  id.LocationID
}

func TestSessionServiceSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceSuite))
}

func (s *SessionServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.identities = identity.NewInMemoryStore()
	s.locations = location.NewInMemoryStore()
	s.entitlements = entitlement.NewInMemoryStore()
	s.ledgerStore = ledger.NewInMemoryStore()
	s.sessions = NewInMemoryStore()

	s.alice = id.IdentityID(uuid.New())
	s.bob = id.IdentityID(uuid.New())
	s.gate = id.LocationID(uuid.New())

	s.Require().NoError(s.identities.Save(s.ctx, identity.Identity{
		ID:      s.alice,
		QRToken: "qr-alice",
		PIN:     "1111",
		Active:  true,
	}))
	s.Require().NoError(s.identities.Save(s.ctx, identity.Identity{
		ID:      s.bob,
		QRToken: "qr-bob",
		PIN:     "2222",
		Active:  true,
	}))
	s.Require().NoError(s.locations.Save(s.ctx, location.Location{
		ID:           s.gate,
		Name:         "Main Gate",
		EntryMethods: id.NewMethodSet(id.MethodQR, id.MethodPIN),
		ExitMethods:  id.NewMethodSet(id.MethodQR),
	}))
	s.Require().NoError(s.entitlements.Save(s.ctx, entitlement.Entitlement{
		IdentityID: s.alice,
		LocationID: s.gate,
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledgerService, err := ledger.NewService(s.ledgerStore, nil, logger)
	s.Require().NoError(err)
	evaluator, err := entitlement.NewEvaluator(s.entitlements)
	s.Require().NoError(err)

	s.service, err = NewService(
		s.sessions,
		s.locations,
		policy.NewResolver(),
		verify.NewRegistry(verify.NewQRVerifier(s.identities), verify.NewPINVerifier(s.identities)),
		evaluator,
		ledgerService,
		nil,
		logger,
	)
	s.Require().NoError(err)
}

func (s *SessionServiceSuite) start(direction id.Direction) *Session {
	sess, err := s.service.Start(s.ctx, s.gate, direction)
	s.Require().NoError(err)
	return sess
}

func (s *SessionServiceSuite) aliceEntries() []ledger.Entry {
	entries, err := s.ledgerStore.ListByIdentity(s.ctx, s.alice)
	s.Require().NoError(err)
	return entries
}

func (s *SessionServiceSuite) TestStart() {
	s.Run("orders required methods canonically and awaits the first", func() {
		sess := s.start(id.DirectionEntry)
		s.Equal(StateAwaiting, sess.State)
		s.Equal([]id.MethodKind{id.MethodQR, id.MethodPIN}, sess.Required)
		s.Equal(id.MethodQR, sess.Awaiting)
	})

	s.Run("fails closed for an unconfigured direction", func() {
		bare := id.LocationID(uuid.New())
		s.Require().NoError(s.locations.Save(s.ctx, location.Location{
			ID:           bare,
			Name:         "Storage",
			EntryMethods: id.NewMethodSet(id.MethodQR),
		}))

		_, err := s.service.Start(s.ctx, bare, id.DirectionExit)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidPolicy))
	})

	s.Run("rejects an unknown location", func() {
		_, err := s.service.Start(s.ctx, id.LocationID(uuid.New()), id.DirectionEntry)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *SessionServiceSuite) TestSingleMethodGrant() {
	sess := s.start(id.DirectionExit)

	result, err := s.service.Submit(s.ctx, sess.ID, id.MethodQR, verify.Credential{Token: "qr-alice"})
	s.Require().NoError(err)
	s.Equal(StatusGranted, result.Status)

	entries := s.aliceEntries()
	s.Require().Len(entries, 1)
	s.True(entries[0].Success)
	s.Equal(id.DirectionExit, entries[0].Direction)
	s.Equal([]id.MethodKind{id.MethodQR}, entries[0].Methods)
	s.NotEmpty(entries[0].Hash)
}

func (s *SessionServiceSuite) TestMultiMethodGrant() {
	sess := s.start(id.DirectionEntry)

	first, err := s.service.Submit(s.ctx, sess.ID, id.MethodQR, verify.Credential{Token: "qr-alice"})
	s.Require().NoError(err)
	s.Equal(StatusProgress, first.Status)
	s.Equal(id.MethodPIN, first.Awaiting)
	s.Equal([]id.MethodKind{id.MethodQR}, first.Completed)

	second, err := s.service.Submit(s.ctx, sess.ID, id.MethodPIN, verify.Credential{PIN: "1111"})
	s.Require().NoError(err)
	s.Equal(StatusGranted, second.Status)

	entries := s.aliceEntries()
	s.Require().Len(entries, 1)
	s.True(entries[0].Success)
	s.Equal([]id.MethodKind{id.MethodQR, id.MethodPIN}, entries[0].Methods)
}

func (s *SessionServiceSuite) TestIdentityMismatchDenies() {
	sess := s.start(id.DirectionEntry)

	_, err := s.service.Submit(s.ctx, sess.ID, id.MethodQR, verify.Credential{Token: "qr-alice"})
	s.Require().NoError(err)

	result, err := s.service.Submit(s.ctx, sess.ID, id.MethodPIN, verify.Credential{PIN: "2222"})
	s.Require().NoError(err)
	s.Equal(StatusDenied, result.Status)
	s.Equal(ReasonIdentityMismatch, result.Reason)

	// The entry is attributed to the identity bound by the first credential.
	entries := s.aliceEntries()
	s.Require().Len(entries, 1)
	s.False(entries[0].Success)
	s.Equal(ReasonIdentityMismatch, entries[0].Reason)
}

func (s *SessionServiceSuite) TestNoEntitlementDenies() {
	sess := s.start(id.DirectionEntry)

	// Bob has no entitlement row for the gate.
	result, err := s.service.Submit(s.ctx, sess.ID, id.MethodQR, verify.Credential{Token: "qr-bob"})
	s.Require().NoError(err)
	s.Equal(StatusDenied, result.Status)
	s.Equal(ReasonNoAccess, result.Reason)

	entries, err := s.ledgerStore.ListByIdentity(s.ctx, s.bob)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.False(entries[0].Success)
	s.Equal(ReasonNoAccess, entries[0].Reason)
	s.Equal([]id.MethodKind{id.MethodQR}, entries[0].Methods)
}

func (s *SessionServiceSuite) TestExpiredEntitlementDenies() {
	expired := time.Now().Add(-time.Hour)
	s.Require().NoError(s.entitlements.Save(s.ctx, entitlement.Entitlement{
		IdentityID: s.bob,
		LocationID: s.gate,
		ExpiresAt:  &expired,
	}))

	sess := s.start(id.DirectionEntry)
	result, err := s.service.Submit(s.ctx, sess.ID, id.MethodQR, verify.Credential{Token: "qr-bob"})
	s.Require().NoError(err)
	s.Equal(StatusDenied, result.Status)
	s.Equal(ReasonAccessExpired, result.Reason)
}

func (s *SessionServiceSuite) TestRecoverableVerifierFailure() {
	sess := s.start(id.DirectionEntry)

	result, err := s.service.Submit(s.ctx, sess.ID, id.MethodQR, verify.Credential{Token: "qr-nobody"})
	s.Require().NoError(err)
	s.Equal(StatusProgress, result.Status)
	s.Equal(string(dErrors.CodeNotFound), result.Reason)
	s.Empty(result.Completed)

	// The session survived the failure; a good credential still works.
	retry, err := s.service.Submit(s.ctx, sess.ID, id.MethodQR, verify.Credential{Token: "qr-alice"})
	s.Require().NoError(err)
	s.Equal(StatusProgress, retry.Status)
	s.Equal([]id.MethodKind{id.MethodQR}, retry.Completed)
}

func (s *SessionServiceSuite) TestOrderingAndIdempotency() {
	sess := s.start(id.DirectionEntry)

	s.Run("rejects a method ahead of the awaiting one", func() {
		_, err := s.service.Submit(s.ctx, sess.ID, id.MethodPIN, verify.Credential{PIN: "1111"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects a method the policy never required", func() {
		exitSess := s.start(id.DirectionExit)
		_, err := s.service.Submit(s.ctx, exitSess.ID, id.MethodPIN, verify.Credential{PIN: "1111"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("treats a duplicate completed step as a no-op", func() {
		_, err := s.service.Submit(s.ctx, sess.ID, id.MethodQR, verify.Credential{Token: "qr-alice"})
		s.Require().NoError(err)

		again, err := s.service.Submit(s.ctx, sess.ID, id.MethodQR, verify.Credential{Token: "qr-alice"})
		s.Require().NoError(err)
		s.Equal(StatusProgress, again.Status)
		s.Equal(id.MethodPIN, again.Awaiting)
		s.Empty(s.aliceEntries())
	})

	s.Run("reports the terminal state on resubmission without a second entry", func() {
		_, err := s.service.Submit(s.ctx, sess.ID, id.MethodPIN, verify.Credential{PIN: "1111"})
		s.Require().NoError(err)
		s.Require().Len(s.aliceEntries(), 1)

		result, err := s.service.Submit(s.ctx, sess.ID, id.MethodPIN, verify.Credential{PIN: "1111"})
		s.Require().NoError(err)
		s.Equal(StatusGranted, result.Status)
		s.Len(s.aliceEntries(), 1)
	})
}

func (s *SessionServiceSuite) TestReset() {
	sess := s.start(id.DirectionEntry)
	_, err := s.service.Submit(s.ctx, sess.ID, id.MethodQR, verify.Credential{Token: "qr-alice"})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Reset(s.ctx, sess.ID))

	// Aborted attempts vanish and leave no ledger trace.
	_, err = s.service.Get(s.ctx, sess.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Empty(s.aliceEntries())

	s.Run("resetting an unknown session fails", func() {
		err := s.service.Reset(s.ctx, id.NewSessionID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *SessionServiceSuite) TestLostUpdateRaceIsIdempotent() {
	sess := s.start(id.DirectionExit)

	// Simulate a racing writer: advance the stored session between this
	// writer's read and its update by completing the attempt directly.
	stored, err := s.sessions.Get(s.ctx, sess.ID)
	s.Require().NoError(err)
	racer := stored.Clone()
	racer.Completed.Add(id.MethodQR)
	bound := s.alice
	racer.BoundIdentity = &bound
	racer.State = StateGranted
	s.Require().NoError(s.sessions.Update(s.ctx, racer))

	// The stale writer loses the compare-and-swap and converges on the
	// already-terminal state without appending a second entry.
	result, err := s.service.Submit(s.ctx, sess.ID, id.MethodQR, verify.Credential{Token: "qr-alice"})
	s.Require().NoError(err)
	s.Equal(StatusGranted, result.Status)
	s.Empty(s.aliceEntries())
}

// racingStore injects one competing write immediately before an Update so the
// caller loses the compare-and-swap and has to retry.
type racingStore struct {
	Store
	racer func()
}

func (s *racingStore) Update(ctx context.Context, sess *Session) error {
	if s.racer != nil {
		racer := s.racer
		s.racer = nil
		racer()
	}
	return s.Store.Update(ctx, sess)
}

func (s *SessionServiceSuite) TestMismatchDenialSurvivesLostRace() {
	store := &racingStore{Store: s.sessions}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledgerService, err := ledger.NewService(s.ledgerStore, nil, logger)
	s.Require().NoError(err)
	evaluator, err := entitlement.NewEvaluator(s.entitlements)
	s.Require().NoError(err)
	svc, err := NewService(
		store,
		s.locations,
		policy.NewResolver(),
		verify.NewRegistry(verify.NewQRVerifier(s.identities), verify.NewPINVerifier(s.identities)),
		evaluator,
		ledgerService,
		nil,
		logger,
	)
	s.Require().NoError(err)

	sess, err := svc.Start(s.ctx, s.gate, id.DirectionEntry)
	s.Require().NoError(err)
	_, err = svc.Submit(s.ctx, sess.ID, id.MethodQR, verify.Credential{Token: "qr-alice"})
	s.Require().NoError(err)

	// A competing writer bumps the version without completing a step or
	// terminating, so the denial commit conflicts and must retry.
	store.racer = func() {
		current, err := s.sessions.Get(s.ctx, sess.ID)
		s.Require().NoError(err)
		current.LastActivityAt = current.LastActivityAt.Add(time.Second)
		s.Require().NoError(s.sessions.Update(s.ctx, current))
	}

	// Bob's PIN on alice's session: the retry must keep treating the
	// credential as bob's, never as the bound identity's.
	result, err := svc.Submit(s.ctx, sess.ID, id.MethodPIN, verify.Credential{PIN: "2222"})
	s.Require().NoError(err)
	s.Equal(StatusDenied, result.Status)
	s.Equal(ReasonIdentityMismatch, result.Reason)

	entries := s.aliceEntries()
	s.Require().Len(entries, 1)
	s.False(entries[0].Success)
	s.Equal(ReasonIdentityMismatch, entries[0].Reason)

	bobEntries, err := s.ledgerStore.ListByIdentity(s.ctx, s.bob)
	s.Require().NoError(err)
	s.Empty(bobEntries)
}

func (s *SessionServiceSuite) TestStoreConflictSentinel() {
	sess := s.start(id.DirectionExit)

	stale, err := s.sessions.Get(s.ctx, sess.ID)
	s.Require().NoError(err)

	fresh, err := s.sessions.Get(s.ctx, sess.ID)
	s.Require().NoError(err)
	fresh.LastActivityAt = time.Now()
	s.Require().NoError(s.sessions.Update(s.ctx, fresh))

	err = s.sessions.Update(s.ctx, stale)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}
