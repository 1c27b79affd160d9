package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashComparer checks a secret against a stored hash.
type HashComparer interface {
	Compare(hash string, secret string) error
}

// BcryptComparer compares secrets with bcrypt hashes.
type BcryptComparer struct{}

func (BcryptComparer) Compare(hash string, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
}

// ValidateBcryptHash rejects values that bcrypt cannot compare against.
func ValidateBcryptHash(hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("invalid operator token hash: %w", err)
	}
	return nil
}
