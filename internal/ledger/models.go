// Package ledger is the append-only audit trail of access outcomes. Entries
// are immutable once written: no update or delete exists anywhere in this
// package, and duplicates are rejected by content hash.
package ledger

import (
	"time"

	id "kioskgate/pkg/domain"
)

// Entry records one terminal session outcome, granted or denied. IdentityID
// is nil when no credential ever resolved (for example a policy denial before
// any successful verification).
type Entry struct {
	ID         id.EntryID
	Direction  id.Direction
	IdentityID *id.IdentityID
	LocationID id.LocationID
	Methods    []id.MethodKind
	Success    bool
	Reason     string
	Timestamp  time.Time
	Hash       string
}

// Draft is an entry before its identifier and content hash are assigned.
type Draft struct {
	Direction  id.Direction
	IdentityID *id.IdentityID
	LocationID id.LocationID
	Methods    []id.MethodKind
	Success    bool
	Reason     string
	Timestamp  time.Time
}
