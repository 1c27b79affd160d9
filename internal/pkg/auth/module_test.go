package auth

import (
	"testing"

	"github.com/polkiloo/pointsledger/internal/config"
)

func TestNewTokenVerifier(t *testing.T) {
	verifier, err := newTokenVerifier(verifierParams{
		Config:   &config.Config{OpsTokenHash: mustHash(t, "ops-secret")},
		Comparer: BcryptComparer{},
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	hashVerifier, ok := verifier.(*HashTokenVerifier)
	if !ok {
		t.Fatalf("expected *HashTokenVerifier, got %T", verifier)
	}
	if !hashVerifier.Enabled() {
		t.Fatalf("expected verifier enabled when hash configured")
	}
	if err := verifier.Verify("ops-secret"); err != nil {
		t.Fatalf("expected configured token accepted, got %v", err)
	}

	disabled, err := newTokenVerifier(verifierParams{Config: &config.Config{}, Comparer: BcryptComparer{}})
	if err != nil {
		t.Fatalf("new disabled verifier: %v", err)
	}
	if disabled.Enabled() {
		t.Fatalf("expected verifier disabled without hash")
	}
}

func TestNewTokenVerifierRejectsMalformedHash(t *testing.T) {
	_, err := newTokenVerifier(verifierParams{
		Config:   &config.Config{OpsTokenHash: "$2a$10$abcdefghijklmnopqrstuu"},
		Comparer: BcryptComparer{},
	})
	if err == nil {
		t.Fatal("expected malformed hash to fail construction")
	}
}
