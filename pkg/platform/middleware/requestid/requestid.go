// Package requestid assigns each request an identifier for log correlation.
// An inbound X-Request-ID header is honored so upstream proxies can thread
// their own IDs through.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"kioskgate/pkg/requestcontext"
)

const headerName = "X-Request-ID"

// Middleware stores the request ID in the context and echoes it in the
// response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerName)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(headerName, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
