// Package idgen mints opaque, url-safe random identifiers for
// sessions, lobbies, groups and blobs.
package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// New returns a random url-safe id of the given byte length (pre-encoding).
func New(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// MustNew panics if randomness is unavailable, which in practice never
// happens on a supported OS; used only in contexts where the caller
// has no error path (e.g. package-level test fixtures).
func MustNew(byteLen int) string {
	id, err := New(byteLen)
	if err != nil {
		panic(err)
	}
	return id
}

// Session and Blob ids use 16 random bytes (128 bits); Lobby and Group
// ids use 12 random bytes (96 bits).
func Session() (string, error) { return New(16) }
func Lobby() (string, error)   { return New(12) }
func Blob() (string, error)    { return New(16) }
func Group() (string, error)   { return New(12) }
