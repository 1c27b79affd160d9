package test

import (
	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
)

// VerifierStub accepts a single token; the zero value disables verification.
type VerifierStub struct {
	Token string
	Err   error
}

// Enabled reports whether a token is configured.
func (v VerifierStub) Enabled() bool { return v.Token != "" || v.Err != nil }

// Verify returns Err when set, otherwise compares against Token.
func (v VerifierStub) Verify(token string) error {
	if v.Err != nil {
		return v.Err
	}
	if token != v.Token {
		return domainErrors.ErrInvalidCredentials
	}
	return nil
}
