// Package httptransport serves the worker's admin surface: liveness,
// readiness, Prometheus metrics and operator resubmission.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hub/pkg/platform/middleware/admin"
)

// NewRouter wires the admin endpoints. Operator routes require adminToken.
func NewRouter(h *Handler, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin", func(r chi.Router) {
		r.Use(admin.RequireAdminToken(adminToken, logger))
		r.Post("/records/{recordID}/resubmit", h.handleResubmit)
		r.Post("/records/{recordID}/process", h.handleProcess)
	})
	return r
}
