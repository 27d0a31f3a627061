package handler

// Every error response has the same shape:
//
//	{"error": "already_taken", "message": "WHITE seat in game 3 is already taken"}
//
// The error field is machine-readable and stable; message is for people.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/chess-lobby/internal/apperror"
)

// maxBodyBytes caps request bodies. Every request in this API is a small
// JSON object.
const maxBodyBytes = 1 << 16

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON sends data as JSON with the given status. Headers must be set
// before WriteHeader; nothing after it reaches the client.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a service error to its HTTP status:
//
//	ErrValidation             → 400 bad_request
//	ErrUnauthorized           → 401 unauthorized
//	ErrAlreadyTaken, SeatTaken → 403 already_taken
//	ErrNotFound               → 404 not_found
//	anything else             → 500 internal_error
//
// 500s never echo the underlying error to the client; it is logged instead.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, kind := classify(err)

	var appErr *apperror.AppError
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		logger.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Error: an internal error occurred",
		})
		return
	}

	writeJSON(w, status, ErrorResponse{Error: kind, Message: appErr.Message})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrAlreadyTaken), errors.Is(err, apperror.ErrSeatTaken):
		return http.StatusForbidden, "already_taken"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	}
	return http.StatusInternalServerError, "internal_error"
}

// decodeJSON reads a JSON object from r into dst. An empty, malformed or
// oversized body is a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "Error: bad request")
	}
	return nil
}
