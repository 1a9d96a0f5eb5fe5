package passwords

import (
	"strings"
	"unicode/utf8"
)

// Strength is the coarse rating returned by CheckStrength.
type Strength int

const (
	Weak Strength = iota
	Medium
	Strong
)

func (s Strength) String() string {
	switch s {
	case Medium:
		return "Medium"
	case Strong:
		return "Strong"
	default:
		return "Weak"
	}
}

// Description is a one-line explanation suitable for showing to a user.
func (s Strength) Description() string {
	switch s {
	case Medium:
		return "Password strength is acceptable but could be improved."
	case Strong:
		return "Password meets strong security requirements."
	default:
		return "Password is too weak. Consider using a stronger password."
	}
}

// commonPatterns are matched case-sensitively.
var commonPatterns = []string{"123", "abc", "qwe", "password", "admin"}

// CheckStrength scores password on length, character variety and common
// patterns. Anything shorter than eight characters is Weak.
func CheckStrength(password string) Strength {
	length := utf8.RuneCountInString(password)
	if length < 8 {
		return Weak
	}

	score := 1
	if length >= 12 {
		score = 2
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	for _, present := range []bool{lower, upper, digit, special} {
		if present {
			score++
		}
	}

	for _, p := range commonPatterns {
		if strings.Contains(password, p) {
			score -= 2
			break
		}
	}
	if hasRun(password, 3) {
		score--
	}

	switch {
	case score >= 5:
		return Strong
	case score >= 3:
		return Medium
	default:
		return Weak
	}
}

// hasRun reports whether some character occurs n or more times in a row.
func hasRun(s string, n int) bool {
	var prev rune
	run := 0
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}
