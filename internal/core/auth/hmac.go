package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

// KeyPrefix identifies PriceKeeper API keys and their format version.
const (
	KeyPrefix  = "pk"
	KeyVersion = "v1"
)

// API key layout: pk-v1-<secret_id>-<random_data>, 102 chars total.
// secret_id is 32 lowercase hex chars (UUID without hyphens) naming the
// HMAC secret; random_data is 64 lowercase hex chars (256 bits).
var apiKeyPattern = regexp.MustCompile(`^` + KeyPrefix + `-` + KeyVersion + `-([0-9a-f]{32})-([0-9a-f]{64})$`)

// ParseAPIKey extracts secret_id and random_data.
// Returns ErrInvalidKeyFormat if the key does not match the layout.
func ParseAPIKey(key string) (secretID, randomData string, err error) {
	m := apiKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return "", "", ErrInvalidKeyFormat
	}
	return m[1], m[2], nil
}

// ComputeHMAC computes HMAC-SHA256 signature of API key using secret.
// Only this hash is stored, so a database leak does not expose keys.
func ComputeHMAC(secret []byte, apiKey string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(apiKey))
	return h.Sum(nil)
}

// VerifyHMAC compares two hashes in constant time.
func VerifyHMAC(expectedHash, computedHash []byte) bool {
	return hmac.Equal(expectedHash, computedHash)
}

// FormatAPIKey constructs API key from components.
func FormatAPIKey(secretID, randomData string) string {
	return fmt.Sprintf("%s-%s-%s-%s", KeyPrefix, KeyVersion, secretID, randomData)
}

// GenerateAPIKey creates a new key bound to secretID with 256 random bits.
func GenerateAPIKey(secretID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random key data: %w", err)
	}
	key := FormatAPIKey(secretID, hex.EncodeToString(buf))
	if _, _, err := ParseAPIKey(key); err != nil {
		return "", fmt.Errorf("secret id %q: %w", secretID, err)
	}
	return key, nil
}
