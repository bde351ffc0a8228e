package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// passwordSpecials are the symbols a strong password must draw one from.
const passwordSpecials = "@$!%*?&"

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IsStrongPassword reports whether p has at least 8 characters, one ASCII
// uppercase letter, one ASCII digit and one of @$!%*?&.
func IsStrongPassword(p string) bool {
	if len([]rune(p)) < 8 {
		return false
	}
	var upper, digit, special bool
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && digit && special
}
