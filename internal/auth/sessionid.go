package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrInvalidSession is returned when a session id is malformed.
	ErrInvalidSession = errors.New("invalid session id")
)

// NewSessionID creates a random cookie value and the hash used to store it.
func NewSessionID() (raw string, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = base64.RawURLEncoding.EncodeToString(buf)
	hashed = HashSessionID(raw)
	return raw, hashed, nil
}

// HashSessionID produces a base64 SHA-256 digest.
func HashSessionID(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// SessionKey builds the storage key for a hashed session id.
func SessionKey(hash string) string {
	return fmt.Sprintf("session:%s", hash)
}

// ValidSessionID checks the shape of a raw cookie value.
func ValidSessionID(raw string) error {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil || len(b) != 32 {
		return ErrInvalidSession
	}
	return nil
}
