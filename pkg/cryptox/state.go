package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Token size constants (in bytes before encoding).
const (
	// StateSize128 provides 128 bits of entropy (22 chars base64url).
	StateSize128 = 16
	// StateSize256 provides 256 bits of entropy (43 chars base64url).
	StateSize256 = 32
)

// GenerateState creates a cryptographically secure random value of the given
// byte length, returned as a base64url string (URL-safe, no padding). Used for
// OAuth state parameters and anywhere else an unguessable nonce is needed.
func GenerateState(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("state size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
