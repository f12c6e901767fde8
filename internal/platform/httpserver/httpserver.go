package httpserver

import (
	"net/http"
	"time"
)

// New builds the admin HTTP server used by the worker for health, metrics and
// operator endpoints. Write timeout covers a synchronous resubmission.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       time.Minute,
	}
}
