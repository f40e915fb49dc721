// Package pkce implements the proof-key-for-code-exchange extension
// (RFC 7636) used by the authorization-code flow. The client proves it
// started the flow by sending a hash of a random secret with the
// authorization request and the secret itself with the token exchange.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// MethodS256 is the SHA-256 challenge method. Plain verifiers are not
// supported.
const MethodS256 = "S256"

// Proof pairs a code verifier with its derived challenge.
type Proof struct {
	// Verifier goes to the token endpoint as code_verifier.
	Verifier string

	// Challenge goes on the authorization URL as code_challenge.
	Challenge string
}

// Generate creates a fresh random proof. The verifier is 43 characters of
// base64url, the minimum RFC 7636 allows.
func Generate() (*Proof, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(raw)
	return &Proof{
		Verifier:  verifier,
		Challenge: challengeFor(verifier),
	}, nil
}

// Matches reports whether verifier hashes to challenge.
func Matches(verifier, challenge string) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	derived := challengeFor(verifier)
	return subtle.ConstantTimeCompare([]byte(derived), []byte(challenge)) == 1
}

func challengeFor(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
