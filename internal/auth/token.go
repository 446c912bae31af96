// internal/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrTokenUsed    = errors.New("token already used")
)

// Claims for a step dispatch token
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates the single-use, short-lived tokens
// that authorize one self-dispatched step. Each token carries a unique
// jti tied to the job key; a jti is accepted exactly once.
type TokenIssuer struct {
	secret  []byte
	subject string
	ttl     time.Duration

	mu   sync.Mutex
	used map[string]time.Time
}

func NewTokenIssuer(secret, subject string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:  []byte(secret),
		subject: subject,
		ttl:     ttl,
		used:    make(map[string]time.Time),
	}
}

// Generate mints a fresh single-use token
func (i *TokenIssuer) Generate() (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   i.subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate checks signature, subject and expiry, and burns the jti so a
// replayed token is rejected
func (i *TokenIssuer) Validate(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject != i.subject || claims.ID == "" {
		return ErrInvalidToken
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.pruneLocked()

	if _, seen := i.used[claims.ID]; seen {
		return ErrTokenUsed
	}
	i.used[claims.ID] = claims.ExpiresAt.Time
	return nil
}

// pruneLocked drops burned jtis whose tokens have expired anyway
func (i *TokenIssuer) pruneLocked() {
	now := time.Now()
	for id, exp := range i.used {
		if now.After(exp) {
			delete(i.used, id)
		}
	}
}
