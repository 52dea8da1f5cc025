package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes, so longer passwords would
// silently share a hash with their prefix.
const (
	minimumPasswordLength = 8
	maximumPasswordLength = 72
)

var (
	ErrWeakPassword    = errors.New("password does not meet minimum length")
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
)

func HashPassword(plain string) (string, error) {
	switch {
	case len(plain) < minimumPasswordLength:
		return "", ErrWeakPassword
	case len(plain) > maximumPasswordLength:
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plain matches hash. An empty hash never
// matches.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
