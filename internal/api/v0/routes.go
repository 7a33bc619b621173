// Package v0 provides the health, readiness and version endpoints.
package v0

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/country-registry/internal/api/common"
	"github.com/stacklok/country-registry/internal/service"
	"github.com/stacklok/country-registry/internal/versions"
)

// StatusResponse represents the health and readiness check responses
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents a failed readiness check
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.CountryService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles GET /health
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, StatusResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler handles GET /readiness
func readinessHandler(svc service.CountryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
			common.WriteJSONResponse(w, ErrorResponse{
				Error: "country registry not ready: " + err.Error(),
			}, http.StatusServiceUnavailable)
			return
		}

		common.WriteJSONResponse(w, StatusResponse{Status: "ready"}, http.StatusOK)
	}
}

// versionHandler handles GET /version
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
