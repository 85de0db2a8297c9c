package session

import (
	"time"

	id "kioskgate/pkg/domain"
)

// State is the lifecycle position of one access attempt.
type State string

const (
	// StateAwaiting means the session is waiting for a credential for
	// Awaiting. Sessions enter it immediately on creation, for the first
	// required method.
	StateAwaiting State = "awaiting"
	// StateGranted and StateDenied are terminal; each is reached exactly once
	// and triggers exactly one ledger append.
	StateGranted State = "granted"
	StateDenied  State = "denied"
	// StateAborted is terminal without a ledger entry: explicit reset or
	// inactivity timeout.
	StateAborted State = "aborted"
)

// Session is the authoritative server-side record of one attempt. Client
// reports of progress are never trusted; every submission is validated
// against this record. Version implements per-session compare-and-swap: a
// store update only succeeds when the caller read the current version, so
// "bind identity" and "advance method" happen at most once per logical event.
type Session struct {
	ID             id.SessionID
	LocationID     id.LocationID
	Direction      id.Direction
	Required       []id.MethodKind
	Completed      id.MethodSet
	BoundIdentity  *id.IdentityID
	State          State
	Awaiting       id.MethodKind
	DenyReason     string
	CreatedAt      time.Time
	LastActivityAt time.Time
	Version        int64
}

// Terminal reports whether the session accepts no further mutation.
func (s *Session) Terminal() bool {
	return s.State == StateGranted || s.State == StateDenied || s.State == StateAborted
}

// Complete reports whether every required method has been completed.
func (s *Session) Complete() bool {
	return s.Completed.Len() == len(s.Required)
}

// NextMethod returns the first required method, in canonical order, that has
// not been completed yet.
func (s *Session) NextMethod() (id.MethodKind, bool) {
	for _, kind := range s.Required {
		if !s.Completed.Has(kind) {
			return kind, true
		}
	}
	return "", false
}

// Requires reports whether kind is part of the required set.
func (s *Session) Requires(kind id.MethodKind) bool {
	for _, k := range s.Required {
		if k == kind {
			return true
		}
	}
	return false
}

// Clone returns an independent copy so stores never hand out shared state.
func (s *Session) Clone() *Session {
	out := *s
	out.Required = append([]id.MethodKind(nil), s.Required...)
	out.Completed = s.Completed.Clone()
	if s.BoundIdentity != nil {
		bound := *s.BoundIdentity
		out.BoundIdentity = &bound
	}
	return &out
}
