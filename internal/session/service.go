// Package session drives the multi-step access attempt: start, submit
// credentials in canonical order, grant or deny, and append the outcome to
// the ledger. The stored session record is authoritative; nothing the kiosk
// reports about its own progress is trusted.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"kioskgate/internal/entitlement"
	"kioskgate/internal/ledger"
	"kioskgate/internal/location"
	"kioskgate/internal/session/metrics"
	"kioskgate/internal/verify"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
	"kioskgate/pkg/platform/sentinel"
	"kioskgate/pkg/requestcontext"
)

var tracer = otel.Tracer("kioskgate/session")

// Deny reasons recorded on the session and in the ledger.
const (
	ReasonNoAccess         = "no_access"
	ReasonAccessExpired    = "access_expired"
	ReasonIdentityMismatch = "identity_mismatch"
)

// casAttempts bounds the optimistic-update retry loop. Two writers racing on
// the same session converge within one retry; more conflicts than that means
// the caller should re-read and report current state.
const casAttempts = 3

// Status is the submission outcome reported to the kiosk.
type Status string

const (
	// StatusProgress means the session is still awaiting one or more methods,
	// either because a step just completed or because verification failed
	// recoverably and may be retried.
	StatusProgress Status = "progress"
	StatusGranted  Status = "granted"
	StatusDenied   Status = "denied"
)

// SubmitResult is the full state echo returned after every submission, so the
// kiosk can render progress without keeping state of its own.
type SubmitResult struct {
	SessionID id.SessionID
	Status    Status
	Awaiting  id.MethodKind
	Completed []id.MethodKind
	Required  []id.MethodKind
	Reason    string
}

// Service implements the session lifecycle over a compare-and-swap store.
// Every state transition is a CAS write; exactly one writer wins each logical
// transition, and only the winner of a terminal transition appends the ledger
// entry.
type Service struct {
	sessions     Store
	locations    location.Store
	resolver     PolicyResolver
	verifiers    *verify.Registry
	entitlements *entitlement.Evaluator
	ledger       *ledger.Service
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// PolicyResolver derives the ordered required methods for a location and
// direction.
type PolicyResolver interface {
	Resolve(loc location.Location, direction id.Direction) ([]id.MethodKind, error)
}

func NewService(
	sessions Store,
	locations location.Store,
	resolver PolicyResolver,
	verifiers *verify.Registry,
	entitlements *entitlement.Evaluator,
	ledgerSvc *ledger.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if locations == nil {
		return nil, fmt.Errorf("location store is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("policy resolver is required")
	}
	if verifiers == nil {
		return nil, fmt.Errorf("verifier registry is required")
	}
	if entitlements == nil {
		return nil, fmt.Errorf("entitlement evaluator is required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service is required")
	}
	return &Service{
		sessions:     sessions,
		locations:    locations,
		resolver:     resolver,
		verifiers:    verifiers,
		entitlements: entitlements,
		ledger:       ledgerSvc,
		metrics:      m,
		logger:       logger,
	}, nil
}

// Start resolves the location's policy for the direction and creates a
// session awaiting the first required method. A location with no methods for
// the direction fails closed: no session is created.
func (s *Service) Start(ctx context.Context, locationID id.LocationID, direction id.Direction) (*Session, error) {
	loc, err := s.locations.FindByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "location not found")
		}
		return nil, fmt.Errorf("load location: %w", err)
	}

	required, err := s.resolver.Resolve(*loc, direction)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	sess := &Session{
		ID:             id.NewSessionID(),
		LocationID:     locationID,
		Direction:      direction,
		Required:       required,
		Completed:      id.NewMethodSet(),
		State:          StateAwaiting,
		Awaiting:       required[0],
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementStarted()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "session started",
			"session_id", sess.ID,
			"location_id", locationID,
			"direction", direction,
			"required_methods", len(required),
		)
	}
	return sess.Clone(), nil
}

// Submit verifies one credential against the awaiting method and advances the
// session. Recoverable verification failures leave the session untouched and
// report a progress result with the failure reason so the kiosk can retry.
func (s *Service) Submit(ctx context.Context, sessionID id.SessionID, kind id.MethodKind, cred verify.Credential) (*SubmitResult, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveSubmit(start)
		}
	}()

	ctx, span := tracer.Start(ctx, "session.submit")
	span.SetAttributes(
		attribute.String("session.id", sessionID.String()),
		attribute.String("session.method", kind.String()),
	)
	defer span.End()

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if sess.Terminal() {
		return resultFor(sess), nil
	}
	if !sess.Requires(kind) {
		return nil, dErrors.New(dErrors.CodeValidation, "method "+kind.String()+" is not required for this session")
	}
	if sess.Completed.Has(kind) {
		// Duplicate delivery of an already-completed step. No state change.
		return resultFor(sess), nil
	}
	if kind != sess.Awaiting {
		return nil, dErrors.New(dErrors.CodeValidation, "session is awaiting method "+sess.Awaiting.String())
	}

	verifier, err := s.verifiers.For(kind)
	if err != nil {
		return nil, err
	}
	ident, err := verifier.Verify(ctx, cred)
	if err != nil {
		code := dErrors.CodeOf(err)
		if !dErrors.Retryable(code) {
			return nil, err
		}
		// The step failed but the attempt survives. The kiosk retries the
		// same method; the session keeps awaiting it.
		if s.metrics != nil {
			s.metrics.IncrementVerifierFailure(kind.String(), string(code))
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "credential verification failed",
				"session_id", sessionID,
				"method", kind,
				"code", code,
			)
		}
		res := resultFor(sess)
		res.Reason = string(code)
		return res, nil
	}

	return s.advance(ctx, sess, kind, ident.ID)
}

// advance applies the post-verification transition under compare-and-swap.
// On a lost race it re-reads and either converges on the idempotent no-op
// (another writer already applied this step) or retries the transition.
func (s *Service) advance(ctx context.Context, sess *Session, kind id.MethodKind, identityID id.IdentityID) (*SubmitResult, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		if sess.Terminal() {
			return resultFor(sess), nil
		}
		if sess.Completed.Has(kind) {
			return resultFor(sess), nil
		}

		next := sess.Clone()
		next.LastActivityAt = requestcontext.Now(ctx)

		if next.BoundIdentity == nil {
			// First resolved credential binds the identity and triggers the
			// one-time entitlement check for the whole attempt.
			decision, err := s.entitlements.Check(ctx, identityID, next.LocationID)
			if err != nil {
				return nil, err
			}
			if !decision.Granted() {
				reason := ReasonNoAccess
				if decision.Expired {
					reason = ReasonAccessExpired
				}
				bound := identityID
				next.BoundIdentity = &bound
				next.Completed.Add(kind)
				next.State = StateDenied
				next.DenyReason = reason
				return s.commitTerminal(ctx, next, kind, identityID, identityID)
			}
			bound := identityID
			next.BoundIdentity = &bound
		} else if *next.BoundIdentity != identityID {
			// A later credential resolved to someone else. The attempt is
			// over regardless of which identity was "right".
			next.Completed.Add(kind)
			next.State = StateDenied
			next.DenyReason = ReasonIdentityMismatch
			return s.commitTerminal(ctx, next, kind, identityID, *sess.BoundIdentity)
		}

		next.Completed.Add(kind)
		if next.Complete() {
			next.State = StateGranted
			return s.commitTerminal(ctx, next, kind, identityID, *next.BoundIdentity)
		}

		awaiting, ok := next.NextMethod()
		if !ok {
			return nil, dErrors.New(dErrors.CodeInternal, "session has no next method but is not complete")
		}
		next.Awaiting = awaiting

		err := s.sessions.Update(ctx, next)
		if err == nil {
			if s.logger != nil {
				s.logger.InfoContext(ctx, "session advanced",
					"session_id", next.ID,
					"method", kind,
					"awaiting", next.Awaiting,
				)
			}
			return resultFor(next), nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, fmt.Errorf("update session: %w", err)
		}

		sess, err = s.reload(ctx, next.ID)
		if err != nil {
			return nil, err
		}
	}
	return nil, dErrors.New(dErrors.CodeConflict, "session is being updated concurrently")
}

// commitTerminal writes a terminal transition and, only if this writer won
// the race, appends the ledger entry. A lost race means another writer
// already terminated the session; the entry is theirs to append. The retry
// re-runs with the identity the submitted credential resolved to; ledgerID
// only attributes the entry (on a mismatch denial it names the originally
// bound identity).
func (s *Service) commitTerminal(ctx context.Context, next *Session, kind id.MethodKind, resolvedID, ledgerID id.IdentityID) (*SubmitResult, error) {
	err := s.sessions.Update(ctx, next)
	if errors.Is(err, sentinel.ErrConflict) {
		current, rerr := s.reload(ctx, next.ID)
		if rerr != nil {
			return nil, rerr
		}
		if current.Terminal() {
			return resultFor(current), nil
		}
		// The racer advanced without terminating. Re-run the transition from
		// the fresh read.
		return s.advance(ctx, current, kind, resolvedID)
	}
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	s.recordOutcome(ctx, next, ledgerID)
	return resultFor(next), nil
}

// recordOutcome appends the granted-or-denied ledger entry. The decision is
// already committed when this runs, so a ledger failure is logged and the
// result still reported; the entry is not silently retried with a new
// timestamp.
func (s *Service) recordOutcome(ctx context.Context, sess *Session, identityID id.IdentityID) {
	success := sess.State == StateGranted

	var methods []id.MethodKind
	if success {
		methods = append([]id.MethodKind(nil), sess.Required...)
	} else {
		methods = sess.Completed.Sorted()
	}

	bound := identityID
	draft := ledger.Draft{
		Direction:  sess.Direction,
		IdentityID: &bound,
		LocationID: sess.LocationID,
		Methods:    methods,
		Success:    success,
		Reason:     sess.DenyReason,
		Timestamp:  requestcontext.Now(ctx),
	}
	if _, err := s.ledger.Record(ctx, draft); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "record session outcome",
				"session_id", sess.ID,
				"success", success,
				"error", err,
			)
		}
	}

	if s.metrics != nil {
		if success {
			s.metrics.IncrementGranted()
		} else {
			s.metrics.IncrementDenied(sess.DenyReason)
		}
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "session completed",
			"session_id", sess.ID,
			"state", sess.State,
			"reason", sess.DenyReason,
		)
	}
}

// Reset aborts an in-flight session. Aborted attempts leave no ledger entry;
// the ledger records decisions, not abandonment.
func (s *Service) Reset(ctx context.Context, sessionID id.SessionID) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return fmt.Errorf("load session: %w", err)
	}
	if sess.Terminal() {
		return dErrors.New(dErrors.CodeConflict, "session already completed")
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementAborted()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "session aborted",
			"session_id", sessionID,
			"completed_methods", sess.Completed.Len(),
		)
	}
	return nil
}

// Get returns the current session state.
func (s *Service) Get(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

func (s *Service) reload(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, fmt.Errorf("reload session: %w", err)
	}
	return sess, nil
}

func resultFor(sess *Session) *SubmitResult {
	res := &SubmitResult{
		SessionID: sess.ID,
		Status:    StatusProgress,
		Completed: sess.Completed.Sorted(),
		Required:  append([]id.MethodKind(nil), sess.Required...),
	}
	switch sess.State {
	case StateGranted:
		res.Status = StatusGranted
	case StateDenied:
		res.Status = StatusDenied
		res.Reason = sess.DenyReason
	default:
		res.Awaiting = sess.Awaiting
	}
	return res
}
