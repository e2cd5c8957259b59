// Package httputil centralizes the JSON response and error envelopes so every
// handler speaks the same shape.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"foodmatch/pkg/platform/sentinel"
)

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates an error into the JSON error envelope. Sentinel
// errors map to their HTTP status; anything else is an internal error whose
// detail is kept out of the response body.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	case errors.Is(err, sentinel.ErrUnavailable):
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "unavailable"})
	default:
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
	}
}

// WriteBadRequest reports a client-side validation failure with detail.
func WriteBadRequest(w http.ResponseWriter, description string) {
	WriteJSON(w, http.StatusBadRequest, map[string]string{
		"error":             "bad_request",
		"error_description": description,
	})
}
