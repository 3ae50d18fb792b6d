// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/apperr"
	"github.com/dovanminh/lumera/internal/platform/ctxkey"
	"github.com/dovanminh/lumera/internal/platform/respond"
	"github.com/dovanminh/lumera/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the token service
// implementation, allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, parse and verify the JWT via [TokenVerifier].
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
//
// Malformed, tampered, and expired tokens all collapse into the same generic
// 401 so the API never acts as an oracle for token probing; the precise
// failure is still distinguishable in server-side logs.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			tokenStr := parts[1]
			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication failed"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := context.WithValue(request.Context(), ctxkey.KeyUser, claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth gates a route group behind a live authenticated session.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//
// Claim presence alone is not enough: the session checks (revocation,
// fresh account status, IP allow-list) run on every request via
// [authz.Evaluator.AuthorizeSession], so a logout or an account
// suspension cuts access immediately instead of at the access token's
// natural expiry.
func RequireAuth(evaluator *authz.Evaluator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := GetUser(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			decision := evaluator.AuthorizeSession(request.Context(), claims, authz.RequestContext{
				IP: RealIP(request),
			})
			if !decision.Allowed {
				respond.Error(writer, request, denialError(decision))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequirePermission gates a route group behind a single required permission.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It implies
// [RequireAuth], so mounting both is unnecessary.
//
// # Flow
//
// Every request runs the full authorization pipeline: revocation, fresh
// account-status lookup, IP allow-list, and permission membership re-derived
// from the CURRENT role — the check ordering lives in
// [authz.Evaluator.Authorize] and nowhere else.
func RequirePermission(evaluator *authz.Evaluator, required authz.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := GetUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Decision ─────────────────────────────────────
			decision := evaluator.Authorize(request.Context(), claims, required, authz.RequestContext{
				IP: RealIP(request),
			})
			if !decision.Allowed {
				respond.Error(writer, request, denialError(decision))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// denialError maps a deny decision to the client-visible failure, carrying
// the machine-readable reason code.
func denialError(decision authz.Decision) *apperr.AppError {
	status := http.StatusForbidden
	message := "Insufficient permissions"

	switch decision.Reason {
	case authz.ReasonRevoked, authz.ReasonInactiveAccount:
		status = http.StatusUnauthorized
		message = "Session is no longer valid"
	case authz.ReasonIPNotAllowed:
		message = "Access from this address is not allowed"
	case authz.ReasonRegistryUnavailable:
		status = http.StatusServiceUnavailable
		message = "Authorization is temporarily unavailable"
	}

	return &apperr.AppError{
		Code:       strings.ToUpper(string(decision.Reason)),
		Message:    message,
		HTTPStatus: status,
	}
}

// GetUser retrieves the [*sec.AuthClaims] from the [context.Context].
//
// # Returns
//   - A pointer to [*sec.AuthClaims] if the user is authenticated.
//   - nil if the user is anonymous.
func GetUser(ctx context.Context) *sec.AuthClaims {
	claims, ok := ctx.Value(ctxkey.KeyUser).(*sec.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}
