// Package common provides shared HTTP utility functions for API handlers.
package common

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stacklok/country-registry/internal/service"
	"github.com/stacklok/country-registry/internal/validators"
)

// Messages returned in {message} bodies
const (
	MsgCountryNotFound = "Country not found."
	MsgCountryExists   = "Country already exists in the list."
	MsgPersistFailed   = "Failed to persist country registry."
	MsgInternalError   = "Internal server error."
)

// MessageResponse is the body of not-found, conflict and server error responses
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse is the body of a 400 response
type ValidationErrorResponse struct {
	Errors validators.Errors `json:"errors"`
}

// WriteJSONResponse writes a JSON response with the given data
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// WriteMessage writes a {message} body with the given status
func WriteMessage(w http.ResponseWriter, message string, statusCode int) {
	WriteJSONResponse(w, MessageResponse{Message: message}, statusCode)
}

// WriteValidationErrors writes a 400 {errors} body
func WriteValidationErrors(w http.ResponseWriter, errs validators.Errors) {
	WriteJSONResponse(w, ValidationErrorResponse{Errors: errs}, http.StatusBadRequest)
}

// WriteServiceError maps a service error onto its HTTP status and message
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var persistErr *service.PersistenceError
	switch {
	case errors.Is(err, service.ErrCountryNotFound):
		WriteMessage(w, MsgCountryNotFound, http.StatusNotFound)
	case errors.Is(err, service.ErrCountryExists):
		WriteMessage(w, MsgCountryExists, http.StatusConflict)
	case errors.As(err, &persistErr):
		slog.ErrorContext(r.Context(), "Failed to persist country registry",
			"op", persistErr.Op, "error", persistErr.Err)
		WriteMessage(w, MsgPersistFailed, http.StatusInternalServerError)
	default:
		slog.ErrorContext(r.Context(), "Country registry request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		WriteMessage(w, MsgInternalError, http.StatusInternalServerError)
	}
}
