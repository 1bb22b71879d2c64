package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SessionIDBytes is the entropy of a session id (256 bits).
const SessionIDBytes = 32

// NewSessionID generates a cryptographically random 64-character hex session id.
func NewSessionID() (string, error) {
	b := make([]byte, SessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
