// Package domain holds identifiers and enumerations shared by every feature
// package. IDs are distinct types over uuid.UUID so a session ID can never be
// passed where an identity ID is expected; parsing validates at trust
// boundaries (HTTP handlers, store scans).
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "kioskgate/pkg/domain-errors"
)

type (
	// IdentityID identifies a person enrolled for access.
	IdentityID uuid.UUID
	// LocationID identifies a controlled location.
	LocationID uuid.UUID
	// SessionID identifies one in-progress access attempt.
	SessionID uuid.UUID
	// EntryID identifies an immutable ledger entry.
	EntryID uuid.UUID
	// KioskID identifies a registered kiosk device.
	KioskID uuid.UUID
)

func (id IdentityID) String() string { return uuid.UUID(id).String() }
func (id LocationID) String() string { return uuid.UUID(id).String() }
func (id SessionID) String() string  { return uuid.UUID(id).String() }
func (id EntryID) String() string    { return uuid.UUID(id).String() }
func (id KioskID) String() string    { return uuid.UUID(id).String() }

// NewSessionID mints a random session identifier.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewEntryID mints a random ledger entry identifier.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// NewKioskID mints a random kiosk identifier.
func NewKioskID() KioskID { return KioskID(uuid.New()) }

func parseUUID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	if len(raw) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is too long")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseIdentityID validates raw as a non-nil UUID.
func ParseIdentityID(raw string) (IdentityID, error) {
	parsed, err := parseUUID(raw)
	return IdentityID(parsed), err
}

// ParseLocationID validates raw as a non-nil UUID.
func ParseLocationID(raw string) (LocationID, error) {
	parsed, err := parseUUID(raw)
	return LocationID(parsed), err
}

// ParseSessionID validates raw as a non-nil UUID.
func ParseSessionID(raw string) (SessionID, error) {
	parsed, err := parseUUID(raw)
	return SessionID(parsed), err
}

// ParseEntryID validates raw as a non-nil UUID.
func ParseEntryID(raw string) (EntryID, error) {
	parsed, err := parseUUID(raw)
	return EntryID(parsed), err
}

// ParseKioskID validates raw as a non-nil UUID.
func ParseKioskID(raw string) (KioskID, error) {
	parsed, err := parseUUID(raw)
	return KioskID(parsed), err
}
