package auth

import "errors"

// Credential failures. The interceptor maps ErrKeyRevoked to
// PERMISSION_DENIED (the key exists but is blocked), ErrDatabase to
// UNAVAILABLE, and the rest to UNAUTHENTICATED without revealing whether
// the key exists.
var (
	ErrMissingKey       = errors.New("API key required in x-api-key metadata")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown secret ID")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key has been revoked")

	// ErrDatabase wraps storage failures during key lookup.
	ErrDatabase = errors.New("database error")
)
