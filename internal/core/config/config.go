// Package config provides configuration management for PriceKeeper services.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// PricingAPIConfig holds configuration for the gRPC pricing API service.
type PricingAPIConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	SnapshotTTL    time.Duration
	CurrencyScale  int32
	MetricsAddr    string // empty disables the metrics listener
	RedisAddr      string // empty disables Redis segment lookups
	RedisDB        int
	RedisPassword  string // environment only
}

// Currency scale bounds (fractional digits of a final price).
const (
	MinCurrencyScale = 0
	MaxCurrencyScale = 4
)

// DefaultPricingAPIConfig returns configuration with default values.
func DefaultPricingAPIConfig() *PricingAPIConfig {
	return &PricingAPIConfig{
		Host:           "0.0.0.0",
		Port:           50061,
		RequestTimeout: 10 * time.Second,
		SnapshotTTL:    30 * time.Second,
		CurrencyScale:  2,
		MetricsAddr:    ":9464",
		RedisAddr:      "",
		RedisDB:        0,
	}
}

// Address returns the host:port the gRPC listener binds to.
func (c *PricingAPIConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports PK_HMAC_SECRET (single) and PK_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
// Secret IDs are UUIDv7 (32 hex chars without hyphens) matching API key format.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	add := func(key, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check PK_HMAC_SECRET and PK_HMAC_SECRET_* for conflicts)", secretID)
		}
		secrets[secretID] = decoded
		return nil
	}

	// Format: <secret_id>:<base64_secret>
	if val := os.Getenv("PK_HMAC_SECRET"); val != "" {
		if err := add("PK_HMAC_SECRET", val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets keep old and new keys valid during rotation
	for i := 1; ; i++ {
		key := fmt.Sprintf("PK_HMAC_SECRET_%d", i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecret decodes base64-encoded HMAC secret from environment variable.
func ParseHMACSecret(envValue string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envValue))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(decoded) < 32 {
		return nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 hex chars (UUIDv7 without hyphens).
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}

	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = ParseHMACSecret(parts[1])
	if err != nil {
		return "", nil, err
	}

	return secretID, secret, nil
}
