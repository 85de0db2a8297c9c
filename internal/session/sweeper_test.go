package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"kioskgate/internal/session/metrics"
	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

type SweeperSuite struct {
	suite.Suite
	ctx     context.Context
	store   *InMemoryStore
	metrics *metrics.Metrics
	sweeper *Sweeper
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperSuite))
}

// Metrics register against the default registry, so build them once for the
// whole suite and read deltas per test.
func (s *SweeperSuite) SetupSuite() {
	s.metrics = metrics.New()
}

func (s *SweeperSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.sweeper = NewSweeper(s.store, 2*time.Minute, time.Second, s.metrics, logger)
}

func (s *SweeperSuite) seed(lastActivity time.Time, state State) *Session {
	sess := &Session{
		ID:             id.NewSessionID(),
		LocationID:     id.LocationID(uuid.New()),
		Direction:      id.DirectionEntry,
		Required:       []id.MethodKind{id.MethodQR},
		Completed:      id.NewMethodSet(),
		State:          state,
		Awaiting:       id.MethodQR,
		CreatedAt:      lastActivity,
		LastActivityAt: lastActivity,
	}
	s.Require().NoError(s.store.Create(s.ctx, sess))
	return sess
}

func (s *SweeperSuite) TestSweepAbortsOnlyIdleSessions() {
	now := time.Now()
	idle := s.seed(now.Add(-10*time.Minute), StateAwaiting)
	active := s.seed(now, StateAwaiting)
	granted := s.seed(now.Add(-10*time.Minute), StateGranted)

	before := promtestutil.ToFloat64(s.metrics.SessionsAborted)
	s.sweeper.sweep(s.ctx)

	_, err := s.store.Get(s.ctx, idle.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound, "idle awaiting session should be reaped")

	_, err = s.store.Get(s.ctx, active.ID)
	s.Require().NoError(err, "recently active session must survive")

	_, err = s.store.Get(s.ctx, granted.ID)
	s.Require().NoError(err, "terminal sessions are not the sweeper's to reap")

	s.Equal(before+1, promtestutil.ToFloat64(s.metrics.SessionsAborted))
}

func (s *SweeperSuite) TestSweepWithNothingIdleIsANoop() {
	now := time.Now()
	active := s.seed(now, StateAwaiting)

	before := promtestutil.ToFloat64(s.metrics.SessionsAborted)
	s.sweeper.sweep(s.ctx)

	_, err := s.store.Get(s.ctx, active.ID)
	s.Require().NoError(err)
	s.Equal(before, promtestutil.ToFloat64(s.metrics.SessionsAborted))
}

func (s *SweeperSuite) TestListIdleSinceExcludesTerminalSessions() {
	cutoff := time.Now()
	stale := cutoff.Add(-time.Hour)

	awaiting := s.seed(stale, StateAwaiting)
	s.seed(stale, StateGranted)
	s.seed(stale, StateDenied)

	idle, err := s.store.ListIdleSince(s.ctx, cutoff)
	s.Require().NoError(err)
	s.Require().Len(idle, 1)
	s.Equal(awaiting.ID, idle[0].ID)
}
