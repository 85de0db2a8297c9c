// Package httpserver builds the process listener for the kiosk and auditor
// API.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a configured server. Read and write timeouts leave headroom
// for photo submissions, which carry base64 image payloads. Shutdown
// deadlines belong to the caller.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
