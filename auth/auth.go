// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidSessionKey = errors.New("invalid session key")
	ErrInvalidSessionID  = errors.New("invalid session id")
)

// NewSessionID returns a random UUID for a progressive tabulation session.
func NewSessionID() string {
	return uuid.NewString()
}

// ParseSessionID normalizes a session id taken from a URL.
func ParseSessionID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", ErrInvalidSessionID
	}
	return id.String(), nil
}

// GenerateSessionKey creates an HMAC-based key that authorizes appending
// ballots to a session. It is deterministic, so it never has to be stored.
func GenerateSessionKey(sessionID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(sessionID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateSessionKey checks if the provided key is valid for the session
func ValidateSessionKey(sessionID, key, salt string) error {
	expected := GenerateSessionKey(sessionID, salt)
	if !hmac.Equal([]byte(key), []byte(expected)) {
		return ErrInvalidSessionKey
	}
	return nil
}
