package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Security control errors
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrStoreUnavailable  = errors.New("security store unavailable")
	ErrPayloadTooLarge   = errors.New("request payload too large")
	ErrSessionExpired    = errors.New("demo session expired")
	ErrSessionInvalid    = errors.New("demo session invalid")
)
