package apperrors

import (
	"errors"
	"net/http"
)

// Auth failures.
var (
	ErrNotFound          = errors.New("account not found")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenMalformed    = errors.New("token malformed")
	ErrForbidden         = errors.New("forbidden")
)

// Validation failures.
var (
	ErrDuplicateKey = errors.New("record already exists")
	ErrMissingField = errors.New("missing required field")
)

// Ride lifecycle failures.
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotOwner          = errors.New("caller does not own this record")
	ErrAlreadyRated      = errors.New("feedback already submitted for this ride")
	ErrNoDriverAssigned  = errors.New("no driver assigned to this vehicle")
)

// Storage failures. Never shown to clients directly.
var (
	ErrConnectionFailed    = errors.New("storage connection failed")
	ErrConstraintViolation = errors.New("storage constraint violation")
)

// Status maps a domain error to the HTTP status code the handlers respond with.
// Unknown errors are treated as storage-level and collapse to 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenMalformed):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrMissingField),
		errors.Is(err, ErrNoDriverAssigned):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrAlreadyRated):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable code clients branch on.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenMalformed):
		return "token_malformed"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrAlreadyRated):
		return "already_rated"
	case errors.Is(err, ErrNoDriverAssigned):
		return "no_driver_assigned"
	default:
		return "internal_error"
	}
}

// Internal reports whether an error must be hidden from clients. Handlers
// replace the message with a generic one and log the original server-side.
func Internal(err error) bool {
	return Code(err) == "internal_error"
}
