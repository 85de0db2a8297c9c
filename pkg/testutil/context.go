package testutil

import (
	"context"
	"time"

	"kioskgate/pkg/requestcontext"
)

// WithFixedTime pins the request-scoped clock so expiration checks and ledger
// timestamps are deterministic in tests.
func WithFixedTime(ctx context.Context, t time.Time) context.Context {
	return requestcontext.WithTime(ctx, t)
}
