package auth

import (
	"strings"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
)

// TokenVerifier checks operator bearer tokens.
type TokenVerifier interface {
	// Enabled reports whether tokens are required at all.
	Enabled() bool
	Verify(token string) error
}

// HashTokenVerifier compares tokens against one stored hash.
type HashTokenVerifier struct {
	hash   string
	hasher HashComparer
}

// NewHashTokenVerifier builds a verifier for hash; an empty hash disables verification.
func NewHashTokenVerifier(hash string, hasher HashComparer) *HashTokenVerifier {
	return &HashTokenVerifier{hash: strings.TrimSpace(hash), hasher: hasher}
}

func (v *HashTokenVerifier) Enabled() bool { return v.hash != "" }

// Verify returns ErrInvalidCredentials unless token matches the stored hash.
func (v *HashTokenVerifier) Verify(token string) error {
	if !v.Enabled() {
		return nil
	}
	if token == "" {
		return domainErrors.ErrInvalidCredentials
	}
	if err := v.hasher.Compare(v.hash, token); err != nil {
		return domainErrors.ErrInvalidCredentials
	}
	return nil
}
