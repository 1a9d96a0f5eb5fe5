package passwords

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/dmitrijs2005/campusauth/internal/common"
)

// MinGeneratedLength is the shortest password GenerateSecurePassword produces.
const MinGeneratedLength = 8

const (
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	allChars     = upperChars + lowerChars + digitChars + specialChars
)

// GenerateSecurePassword returns a random password of the given length that
// contains at least one upper case letter, one lower case letter, one digit
// and one symbol. All randomness, including the final shuffle, comes from
// crypto/rand.
func GenerateSecurePassword(length int) (string, error) {
	if length < MinGeneratedLength {
		return "", fmt.Errorf("%w: password length must be at least %d characters", common.ErrInvalidArgument, MinGeneratedLength)
	}

	out := make([]byte, 0, length)
	for _, class := range []string{upperChars, lowerChars, digitChars, specialChars} {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := pick(allChars)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher–Yates, so the guaranteed characters do not sit in the first
	// four positions.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

func pick(alphabet string) (byte, error) {
	i, err := randIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

// randIndex returns a uniform integer in [0, n).
func randIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return int(v.Int64()), nil
}
