// Package auth validates the admin API keys that guard the completion
// endpoint.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// Authenticator validates admin API keys against their stored hashes.
type Authenticator struct {
	keyHashes []string
}

// NewAuthenticator creates an authenticator from SHA-256 key hashes.
func NewAuthenticator(keyHashes []string) *Authenticator {
	return &Authenticator{keyHashes: keyHashes}
}

// ValidateAPIKey checks an API key against the configured hashes.
func (a *Authenticator) ValidateAPIKey(apiKey string) error {
	hash := sha256.Sum256([]byte(apiKey))
	keyHash := hex.EncodeToString(hash[:])

	// Constant-time comparison to prevent timing attacks
	for _, stored := range a.keyHashes {
		if subtle.ConstantTimeCompare([]byte(keyHash), []byte(stored)) == 1 {
			return nil
		}
	}

	return fmt.Errorf("invalid API key")
}

// ExtractAPIKey extracts the API key from the Authorization header.
func ExtractAPIKey(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	// Support "Bearer <key>" format
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	if strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("unsupported authorization scheme")
	}

	return parts[1], nil
}

// HashAPIKey creates a SHA-256 hash of an API key for storage.
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}
