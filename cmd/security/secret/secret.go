package secret

import (
	"crypto/rand"
	"fmt"
)

// Alphabets for generated credential material.
const (
	// AlphabetAlphanumeric is used for client secrets (62 symbols, so a
	// 32-character secret carries ~190 bits of entropy).
	AlphabetAlphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// AlphabetPassword extends the alphanumeric alphabet with symbols and is
	// used for endpoint passwords.
	AlphabetPassword = AlphabetAlphanumeric + "!@#$%^&*"
)

// Default lengths, matching the credential contract with the downstream store.
const (
	ClientSecretLength     = 32
	EndpointPasswordLength = 16
)

// Generate returns a random string of length n drawn uniformly from alphabet.
func Generate(n int, alphabet string) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("secret: length must be positive, got %d", n)
	}
	if len(alphabet) < 2 || len(alphabet) > 256 {
		return "", fmt.Errorf("secret: alphabet size out of range: %d", len(alphabet))
	}

	// Rejection sampling: discard bytes >= the largest multiple of the
	// alphabet size so the modulo does not bias early symbols.
	max := byte(256 - (256 % len(alphabet)))

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("secret: %w", err)
		}
		for _, b := range buf {
			if b >= max && max != 0 {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}

	return string(out), nil
}

// NewClientSecret returns a fresh 32-character alphanumeric client secret.
func NewClientSecret() (string, error) {
	return Generate(ClientSecretLength, AlphabetAlphanumeric)
}

// NewEndpointPassword returns a fresh 16-character endpoint password.
func NewEndpointPassword() (string, error) {
	return Generate(EndpointPasswordLength, AlphabetPassword)
}
