package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	id "kioskgate/pkg/domain"
)

// hashPayload fixes the serialization the content hash covers. Field order is
// the struct order, methods are canonically sorted, and the timestamp is
// rendered in UTC RFC3339Nano, so the same logical entry always hashes the
// same regardless of how the caller assembled it.
type hashPayload struct {
	Direction  string   `json:"direction"`
	IdentityID *string  `json:"identityId"`
	LocationID string   `json:"locationId"`
	Methods    []string `json:"methodsUsed"`
	Success    bool     `json:"success"`
	Reason     *string  `json:"reason"`
	Timestamp  string   `json:"timestamp"`
}

// ContentHash returns the SHA-256 hex digest of the draft's canonical
// serialization. Identical payloads (same fields, same timestamp) always
// collide, which is exactly the duplicate-append guard the store enforces.
func ContentHash(d Draft) string {
	payload := hashPayload{
		Direction:  d.Direction.String(),
		LocationID: d.LocationID.String(),
		Success:    d.Success,
		Timestamp:  d.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if d.IdentityID != nil {
		s := d.IdentityID.String()
		payload.IdentityID = &s
	}
	if d.Reason != "" {
		r := d.Reason
		payload.Reason = &r
	}

	methods := append([]id.MethodKind(nil), d.Methods...)
	id.SortMethods(methods)
	payload.Methods = make([]string, len(methods))
	for i, m := range methods {
		payload.Methods[i] = m.String()
	}

	// Marshal of a flat struct with no maps cannot fail.
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
