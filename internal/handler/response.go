package handler

// RESPONSE HELPERS:
// Two response shapes coexist because two kinds of client depend on them.
//
// Catalog routes (/api/problems, /api/categories) use an envelope:
//   {"success": true, "data": [...], "total": 3}
//   {"success": false, "message": "Problem not found"}
//
// Execution routes return the result document directly, and request-level
// failures as:
//   {"error": "code is required", "field": "code"}
//
// Every domain error is mapped to a status code in statusFor, so both shapes
// agree on what a 400 or a 404 means.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/practice-platform/internal/apperror"
)

const internalErrorMessage = "Internal server error"

// Envelope wraps catalog responses.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Total   *int   `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is a request-level failure on the execution routes.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func list[T any](items []T) Envelope {
	n := len(items)
	return Envelope{Success: true, Data: items, Total: &n}
}

// writeJSON sends a JSON response with the given status code.
// Headers must be set before WriteHeader; anything set afterwards is ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error to an HTTP status. Anything unrecognised is
// a 500 and its details never reach the client.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// clientMessage is the text a client may see for err.
func clientMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return internalErrorMessage
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return apperror.TooLarge("request body", int(maxBytes.Limit)).Message
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return http.StatusText(status)
}

// writeEnvelopeError answers a catalog route with {success:false, message}.
func writeEnvelopeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, Envelope{Success: false, Message: clientMessage(err, status)})
}

// writeError answers an execution route with {error, field}.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.String("error", err.Error()))
	}
	resp := ErrorResponse{Error: clientMessage(err, status)}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.Field = appErr.Field
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a request body. A body over the http.MaxBytesReader limit
// is reported as too large; any other decoding problem is a validation error.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return apperror.ValidationFailed("body", "request body must be valid JSON")
	}
	return nil
}
