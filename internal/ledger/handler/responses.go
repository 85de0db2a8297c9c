package handler

import (
	"time"

	"kioskgate/internal/ledger"
	id "kioskgate/pkg/domain"
)

// EntryResponse is the HTTP shape of one ledger entry.
type EntryResponse struct {
	ID         string    `json:"id"`
	Direction  string    `json:"direction"`
	IdentityID *string   `json:"identity_id,omitempty"`
	LocationID string    `json:"location_id"`
	Methods    []string  `json:"methods_used"`
	Success    bool      `json:"success"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Hash       string    `json:"hash"`
}

// ListResponse is the HTTP response for GET /ledger queries.
type ListResponse struct {
	Entries []EntryResponse `json:"entries"`
	Count   int             `json:"count"`
}

// FromEntry converts a domain ledger entry to an HTTP response.
func FromEntry(entry *ledger.Entry) *EntryResponse {
	res := &EntryResponse{
		ID:         entry.ID.String(),
		Direction:  entry.Direction.String(),
		LocationID: entry.LocationID.String(),
		Methods:    methodStrings(entry.Methods),
		Success:    entry.Success,
		Reason:     entry.Reason,
		Timestamp:  entry.Timestamp,
		Hash:       entry.Hash,
	}
	if entry.IdentityID != nil {
		s := entry.IdentityID.String()
		res.IdentityID = &s
	}
	return res
}

// FromEntries converts a slice of entries to a list response.
func FromEntries(entries []ledger.Entry) *ListResponse {
	out := make([]EntryResponse, len(entries))
	for i := range entries {
		out[i] = *FromEntry(&entries[i])
	}
	return &ListResponse{Entries: out, Count: len(out)}
}

func methodStrings(methods []id.MethodKind) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.String()
	}
	return out
}
