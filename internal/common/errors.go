// Package common defines shared constants and sentinel errors used across
// sikre components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrorPermissionDenied = errors.New("permission denied")

	// Share-token lifecycle errors.
	ErrorTokenUsed = errors.New("token already used")

	// Auth errors (session token validation).
	ErrNoCredentials = errors.New("credentials not found")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")

	// Store errors.
	ErrorStoreUnavailable = errors.New("store unavailable")
)
