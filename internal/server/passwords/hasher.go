// Package passwords implements the credential hashing used by the
// credential store, plus password generation and strength rating.
//
// Stored hashes have the form base64(salt) + ":" + base64(digest), where the
// salt is 16 random bytes and the digest is SHA-256 over salt‖password,
// re-hashed until 10,000 passes have been applied. Both parts use standard
// padded base64.
package passwords

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/campusauth/internal/common"
)

const (
	SaltLength = 16
	Iterations = 10000
)

// ErrEmptyPassword is returned by Hash for an empty password.
var ErrEmptyPassword = fmt.Errorf("%w: password is required", common.ErrInvalidArgument)

// newSalt is a seam so tests can observe salt generation without paying for
// the full digest.
var newSalt = func() ([]byte, error) {
	return common.GenerateRandByteArray(SaltLength)
}

// Hash salts and iteratively digests password. Every call draws a fresh salt.
func Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt, err := newSalt()
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	enc := base64.StdEncoding
	return enc.EncodeToString(salt) + ":" + enc.EncodeToString(digest(password, salt)), nil
}

// Verify reports whether password matches stored. Malformed input of any kind
// yields false.
func Verify(password, stored string) bool {
	if password == "" {
		return false
	}
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return false
	}
	enc := base64.StdEncoding
	salt, err := enc.DecodeString(parts[0])
	if err != nil {
		return false
	}
	candidate := enc.EncodeToString(digest(password, salt))
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(parts[1])) == 1
}

func digest(password string, salt []byte) []byte {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(password))
	sum := h.Sum(nil)
	for i := 1; i < Iterations; i++ {
		next := sha256.Sum256(sum)
		sum = next[:]
	}
	return sum
}
