// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer behind small consumer-defined interfaces.
package sec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dovanminh/lumera/pkg/uuid"
)

// # Token Kinds

// TokenKind distinguishes short-lived access tokens from long-lived refresh tokens.
type TokenKind string

const (
	// KindAccess is the short-lived credential presented on every API request.
	KindAccess TokenKind = "access"

	// KindRefresh is the long-lived credential used only to rotate a session.
	KindRefresh TokenKind = "refresh"
)

// # Errors

var (
	// ErrNoSecret is returned when the TokenService is constructed without a
	// signing secret. This is a configuration error and is fatal at startup.
	ErrNoSecret = errors.New("sec: no signing secret configured")

	// ErrTokenMalformed is returned when the token is not a well-formed
	// three-part JWT string.
	ErrTokenMalformed = errors.New("sec: malformed token")

	// ErrInvalidSignature is returned when the recomputed signature does not
	// match the token's signature segment.
	ErrInvalidSignature = errors.New("sec: invalid token signature")

	// ErrTokenExpired is returned when the token's expiry is in the past.
	ErrTokenExpired = errors.New("sec: token expired")
)

// # Claims

// AuthClaims represents the payload embedded inside a signed token.
//
// # Why custom claims?
//
// By embedding the UserID, Email, Role, and a permission snapshot directly
// inside the JWT, middleware can reconstruct the caller's identity WITHOUT
// querying the database on every request. The permission snapshot is
// informational only: authorization decisions re-derive the effective set
// from the principal's CURRENT role, so a role downgrade takes effect before
// the token's natural expiry.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID      string    `json:"uid"`
	Email       string    `json:"eml"`
	Role        string    `json:"rol"`
	Permissions []string  `json:"prm"`
	Kind        TokenKind `json:"knd"`
}

// TokenID returns the unique token identifier (the "jti" claim) used for
// revocation tracking in the session registry.
func (c *AuthClaims) TokenID() string { return c.RegisteredClaims.ID }

// # Snapshot

// PrincipalSnapshot is the immutable identity slice copied into a token at
// issue time.
type PrincipalSnapshot struct {
	UserID      string
	Email       string
	Role        string
	Permissions []string
}

// # Token Service

// TokenService handles generation and verification of JWT tokens using HS256
// under a single process-wide secret key.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService.
//
// It fails with [ErrNoSecret] if the secret is empty — a service without a
// signing key must never start.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

// Issue creates a signed token for the given principal snapshot.
//
// # Freshness
//
// Every call embeds a freshly generated UUIDv7 token identifier ("jti") and
// the current issue timestamp, so two tokens issued back-to-back for an
// identical snapshot always carry distinct identifiers and, with
// overwhelming probability, distinct signatures.
func (service *TokenService) Issue(snapshot PrincipalSnapshot, kind TokenKind, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Subject:   snapshot.UserID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:      snapshot.UserID,
		Email:       snapshot.Email,
		Role:        snapshot.Role,
		Permissions: snapshot.Permissions,
		Kind:        kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Decode checks the structure, signature, and expiry of a token string.
//
// # Failure Modes
//
//   - [ErrTokenMalformed] if the string is not exactly three non-empty
//     dot-separated segments, or a segment does not decode.
//   - [ErrInvalidSignature] if the recomputed HMAC does not match. The
//     comparison inside the JWT library is constant-time.
//   - [ErrTokenExpired] if the expiry claim is in the past.
//
// Any decode failure is terminal: a tampered token never yields claims.
func (service *TokenService) Decode(tokenString string) (*AuthClaims, error) {

	// Structural pre-check: exactly three non-empty segments. The library
	// tolerates a detached (empty) signature segment, which we must not.
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, ErrTokenMalformed
	}
	for _, part := range parts {
		if part == "" {
			return nil, ErrTokenMalformed
		}
	}

	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSignature
	}

	return claims, nil
}

// VerifyToken adapts [Decode] to the middleware's verifier contract and
// restricts it to access tokens. Refresh tokens are only ever accepted by
// the dedicated refresh endpoint.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	claims, err := service.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != KindAccess {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// classifyParseError maps library-level parse errors onto the package's
// closed error taxonomy. Unknown failures are treated as malformed input
// rather than being passed through.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	default:
		return ErrTokenMalformed
	}
}
