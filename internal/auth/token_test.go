// internal/auth/token_test.go
package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenAcceptedExactlyOnce(t *testing.T) {
	issuer := NewTokenIssuer("secret", "enroll", time.Minute)

	token, err := issuer.Generate()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := issuer.Validate(token); err != nil {
		t.Fatalf("first validation failed: %v", err)
	}
	if err := issuer.Validate(token); !errors.Is(err, ErrTokenUsed) {
		t.Fatalf("replay should be rejected, got %v", err)
	}
}

func TestTokensAreDistinct(t *testing.T) {
	issuer := NewTokenIssuer("secret", "enroll", time.Minute)

	first, _ := issuer.Generate()
	second, _ := issuer.Generate()
	if first == second {
		t.Fatal("consecutive tokens must differ")
	}
	if err := issuer.Validate(first); err != nil {
		t.Fatalf("first token rejected: %v", err)
	}
	if err := issuer.Validate(second); err != nil {
		t.Fatalf("burning one token must not burn the other: %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", "enroll", -time.Minute)

	token, err := issuer.Generate()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := issuer.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", "enroll", time.Minute)
	other := NewTokenIssuer("different", "enroll", time.Minute)

	token, _ := issuer.Generate()
	if err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestWrongSubjectRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", "enroll", time.Minute)
	other := NewTokenIssuer("secret", "something-else", time.Minute)

	token, _ := issuer.Generate()
	if err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestMalformedTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", "enroll", time.Minute)
	if err := issuer.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
