package db

import (
	"context"
	"fmt"
	"time"
)

// APIKeyStore manages the api_keys table used by the authenticator.
type APIKeyStore struct {
	queries *Queries
}

// NewAPIKeyStore creates an API key store over queries.
func NewAPIKeyStore(queries *Queries) *APIKeyStore {
	return &APIKeyStore{queries: queries}
}

// Insert stores the HMAC hash of a newly issued key. The plaintext key is
// never persisted.
func (s *APIKeyStore) Insert(ctx context.Context, apiKeyID, tenantID, name string, keyHash []byte) error {
	_, err := s.queries.Exec(ctx, "insert-api-key", apiKeyID, tenantID, name, keyHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}
	return nil
}

// Revoke marks a key revoked. Revoking twice is a no-op.
func (s *APIKeyStore) Revoke(ctx context.Context, apiKeyID string) error {
	_, err := s.queries.Exec(ctx, "revoke-api-key", time.Now().UTC(), apiKeyID)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	return nil
}
