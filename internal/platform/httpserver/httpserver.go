// Package httpserver builds the process HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns the server for the case-management API: handler mounted on
// addr, header reads and idle keep-alives bounded. There is no write
// timeout; request deadlines belong to per-operation contexts.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
