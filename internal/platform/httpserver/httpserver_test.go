package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	mux := http.NewServeMux()
	srv := New(":9090", mux)

	require.Equal(t, ":9090", srv.Addr)
	require.Equal(t, http.Handler(mux), srv.Handler)
	require.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	require.Equal(t, 30*time.Second, srv.ReadTimeout)
	require.Equal(t, 30*time.Second, srv.WriteTimeout)
	require.Equal(t, 2*time.Minute, srv.IdleTimeout)
}
