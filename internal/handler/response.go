package handler

// Response helpers: one JSON shape for success, one for errors, across every
// endpoint.
//
// Error responses look like:
//
//	{"error": "conflict", "message": "an account with this email already exists"}
//
// plus, for validation failures only, a fieldErrors map the frontend uses to
// highlight individual inputs:
//
//	{"error": "validation_error", "message": "...", "fieldErrors": {"email": "invalid email"}}
//
// writeError is the single place domain errors meet HTTP status codes; the
// service layer never sees a status code, and handlers never inspect error
// strings.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/adboard/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error       string            `json:"error"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
// Headers must be set before WriteHeader, and WriteHeader before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone — log is all we can do.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to HTTP and sends it.
//
// Two deliberate asymmetries:
//   - ErrUnauthorized always produces the same fixed body, identical to the
//     guard middleware's rejection — login failures and token failures are
//     indistinguishable on the wire.
//   - Unknown errors become an opaque 500. The real cause is for the server
//     log, never the client.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, apperror.ErrUnauthorized) {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrInvalidAttachment):
			status = http.StatusBadRequest
			errorType = "invalid_attachment"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		}

		writeJSON(w, status, ErrorResponse{
			Error:       errorType,
			Message:     appErr.Message,
			FieldErrors: appErr.Fields,
		})
		return
	}

	slog.Error("internal error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}
