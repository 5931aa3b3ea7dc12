// Package common defines shared constants and sentinel errors used across
// client and server layers of Atlist. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrRateLimited    = errors.New("rate limited")

	// Validation errors, surfaced to the user as inline messages.
	ErrorValidation = errors.New("validation error")

	// ErrMalformedRecord marks a stored or received record that failed to
	// decode into its typed model.
	ErrMalformedRecord = errors.New("malformed record")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
