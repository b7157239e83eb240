package hash

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Bcrypt satisfies the PasswordHasher collaborator interface of the service
// layer.
type Bcrypt struct{}

func (Bcrypt) Hash(plaintext string) (string, error) { return HashPassword(plaintext) }

func (Bcrypt) Verify(plaintext, digest string) bool { return CheckPassword(digest, plaintext) }

var ErrWeakPassword = errors.New("password must be at least 8 characters and contain an upper-case letter, a lower-case letter and a digit")

// ValidateStrength enforces the minimum password shape accepted at
// registration and reset.
func ValidateStrength(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}
