// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them, and tests
// inject them without running the middleware chain.
package requestcontext

import (
	"context"
	"time"

	id "kioskgate/pkg/domain"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	kioskIDKey     struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyKioskID     = kioskIDKey{}
)

// RequestID retrieves the request ID from the context, or "" if unset.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts (workers, tests that don't care).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. All operations within one
// request observe the same "now", which keeps entitlement checks and ledger
// timestamps consistent.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// KioskID retrieves the authenticated kiosk device ID, or the zero value.
func KioskID(ctx context.Context) id.KioskID {
	if kioskID, ok := ctx.Value(ContextKeyKioskID).(id.KioskID); ok {
		return kioskID
	}
	return id.KioskID{}
}

// WithKioskID injects an authenticated kiosk device ID into the context.
func WithKioskID(ctx context.Context, kioskID id.KioskID) context.Context {
	return context.WithValue(ctx, ContextKeyKioskID, kioskID)
}
