package handler

// RESPONSE HELPERS:
// Every handler writes through these two functions so the API has one JSON
// shape for success and one for errors:
//
//	writeJSON(w, http.StatusOK, data)
//	writeError(w, logger, err)
//
// Every error body looks like
//
//	{"error": "not_found", "message": "Meal not found."}
//
// and validation errors add the per-field problems:
//
//	{"error": "validation_error", "message": "Required",
//	 "issues": [{"field": "name", "message": "Required"}]}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dietlog/dietlog-api/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string           `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string           `json:"message"` // Human-readable description
	Issues  []apperror.Issue `json:"issues,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body. Once Encode writes, the
// headers are on the wire and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// ERROR MAPPING:
//
//	ErrUnauthorized       → 401 unauthorized
//	ErrInvalidCredentials → 401 invalid_credentials
//	ErrConflict           → 409 conflict
//	ErrNotFound           → 400 not_found
//	ErrValidation         → 400 validation_error (+ issues)
//	ErrInvalidInput       → 400 invalid_input
//	anything else         → 500 internal_error
//
// NotFound is a 400, not a 404: a meal that isn't yours is a bad request from
// your point of view, and existing clients already expect 400 here.
//
// errors.Is walks the whole Unwrap chain, so a service error wrapped with
// fmt.Errorf("...: %w", appErr) still matches its sentinel.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, errorType := http.StatusInternalServerError, "internal_error"

	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		status, errorType = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrInvalidCredentials):
		status, errorType = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, apperror.ErrConflict):
		status, errorType = http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrNotFound):
		status, errorType = http.StatusBadRequest, "not_found"
	case errors.Is(err, apperror.ErrValidation):
		status, errorType = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrInvalidInput):
		status, errorType = http.StatusBadRequest, "invalid_input"
	}

	if status == http.StatusInternalServerError {
		// Log the detail, send a generic body. The raw message may contain
		// SQL or file paths and never goes to the client.
		logger.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: "An internal error occurred",
		})
		return
	}

	resp := ErrorResponse{Error: errorType, Message: err.Error()}
	// errors.As fills appErr with the first *AppError in the chain, whose
	// Message is the clean, client-facing text.
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Issues = appErr.Issues
	}
	writeJSON(w, status, resp)
}
