// Package httputil writes JSON responses and error envelopes for the
// worker's admin endpoints.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"hub/pkg/domain"
	"hub/pkg/platform/sentinel"
)

// Error codes carried in the "error" field of an error envelope.
const (
	CodeBadRequest   = "bad_request"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeUnavailable  = "unavailable"
	CodeInternal     = "internal_error"
	CodeUnauthorized = "unauthorized"
)

// WriteJSON writes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps err onto a status and writes {"error", "error_description"}.
// Internal errors carry no description.
func WriteError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	body := map[string]string{"error": code}
	if status != http.StatusInternalServerError {
		body["error_description"] = err.Error()
	}
	WriteJSON(w, status, body)
}

// BadRequest marks a client input problem.
type BadRequest struct{ Msg string }

func (e BadRequest) Error() string { return e.Msg }

func classify(err error) (int, string) {
	var bad BadRequest
	switch {
	case errors.As(err, &bad), errors.Is(err, domain.ErrInvalidID), errors.Is(err, sentinel.ErrInvalidState):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, sentinel.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, sentinel.ErrUnavailable):
		return http.StatusServiceUnavailable, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
