// Package apperror defines the error taxonomy shared by every layer of the lobby.
//
// Domain outcomes (bad input, bad credentials, a taken username or seat, a
// missing game) are expected results and travel as *AppError values that wrap
// one of the sentinels below. Callers branch on them with errors.Is:
//
//	if errors.Is(err, apperror.ErrSeatTaken) { ... }
//
// ErrStorage marks a failure of the underlying store. It is never retried here.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrAlreadyTaken = errors.New("already taken")
	ErrSeatTaken    = errors.New("seat taken")
	ErrStorage      = errors.New("storage failure")
)

type AppError struct {
	Err     error  // sentinel from the list above
	Message string // Human-readable error message, safe to show to clients
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure (storage errors only)
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is and errors.As
// can match either.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// GameNotFound is the NotFound flavour used by the game registry.
func GameNotFound(gameID int64) *AppError {
	return NotFound("game", fmt.Sprintf("%d", gameID))
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized is returned for missing or unknown tokens and for bad
// credentials. The message never says which part was wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func AlreadyTaken(resource, id string) *AppError {
	return &AppError{
		Err:     ErrAlreadyTaken,
		Message: fmt.Sprintf("%s %s is already taken", resource, id),
	}
}

func SeatTaken(gameID int64, color string) *AppError {
	return &AppError{
		Err:     ErrSeatTaken,
		Message: fmt.Sprintf("%s seat in game %d is already taken", color, gameID),
		Field:   "playerColor",
	}
}

// Storage wraps a failure of the persistence layer. The client-facing message
// stays generic; the cause is kept for logs.
func Storage(cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: "storage failure",
		Cause:   cause,
	}
}
