package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "kioskgate/pkg/domain"
)

func baseDraft() Draft {
	identityID := id.IdentityID(uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	return Draft{
		Direction:  id.DirectionEntry,
		IdentityID: &identityID,
		LocationID: id.LocationID(uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")),
		Methods:    []id.MethodKind{id.MethodQR, id.MethodPIN},
		Success:    true,
		Timestamp:  time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC),
	}
}

func TestContentHash(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		assert.Equal(t, ContentHash(baseDraft()), ContentHash(baseDraft()))
	})

	t.Run("is a 64-char hex digest", func(t *testing.T) {
		require.Len(t, ContentHash(baseDraft()), 64)
	})

	t.Run("ignores method submission order", func(t *testing.T) {
		reordered := baseDraft()
		reordered.Methods = []id.MethodKind{id.MethodPIN, id.MethodQR}
		assert.Equal(t, ContentHash(baseDraft()), ContentHash(reordered))
	})

	t.Run("normalizes the timestamp zone", func(t *testing.T) {
		shifted := baseDraft()
		shifted.Timestamp = shifted.Timestamp.In(time.FixedZone("UTC+3", 3*3600))
		assert.Equal(t, ContentHash(baseDraft()), ContentHash(shifted))
	})

	t.Run("changes when any field changes", func(t *testing.T) {
		base := ContentHash(baseDraft())

		flipped := baseDraft()
		flipped.Success = false
		assert.NotEqual(t, base, ContentHash(flipped))

		exited := baseDraft()
		exited.Direction = id.DirectionExit
		assert.NotEqual(t, base, ContentHash(exited))

		later := baseDraft()
		later.Timestamp = later.Timestamp.Add(time.Nanosecond)
		assert.NotEqual(t, base, ContentHash(later))

		anonymous := baseDraft()
		anonymous.IdentityID = nil
		assert.NotEqual(t, base, ContentHash(anonymous))

		reasoned := baseDraft()
		reasoned.Reason = "no_access"
		assert.NotEqual(t, base, ContentHash(reasoned))
	})
}
