// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

/*
Package auth implements the identity and session layer of the Lumera shop.

It owns the core domain entities (User, SessionRecord) and the authentication
lifecycle: registration, login, token-pair issuance, refresh rotation, logout,
and session transparency.

# Architecture

  - Service: Orchestrates the authentication use cases.
  - Repositories: Postgres for accounts, Redis for the session registry.
  - Security: bcrypt password hashes plus HS256-signed token pairs from
    [sec.TokenService].

The session registry doubles as the revocation source consulted by the
authorization evaluator on every protected request.
*/
package auth

import (
	"time"

	"github.com/dovanminh/lumera/internal/authz"
)

// # Domain Entities

// User represents a registered account — customer or staff — of the shop.
//
// Accounts are never physically deleted. Deactivation and suspension flip
// the Status field, which forces every authorization decision to deny
// regardless of role or permissions.
type User struct {
	ID           string                `json:"id"`
	Email        string                `json:"email"`
	PasswordHash string                `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string                `json:"display_name"`
	Role         authz.Role            `json:"role"`
	Status       authz.PrincipalStatus `json:"status"`

	// AllowedIPs, when non-empty, pins this account to a fixed set of source
	// addresses. Used for staff accounts operated from known networks.
	AllowedIPs []string `json:"allowed_ips,omitempty"`

	// PermissionOverrides, when non-empty, replaces the role's grant set for
	// this account. Empty means "derive from role" — the normal case.
	PermissionOverrides []authz.Permission `json:"permission_overrides,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns the identity slice embedded into issued tokens.
func (u *User) Snapshot() (id, email, role string, permissions []string) {
	state := authz.PrincipalState{Role: u.Role, PermissionOverrides: u.PermissionOverrides}
	return u.ID, u.Email, string(u.Role), authz.Strings(state.EffectivePermissions())
}

// SessionRecord is the registry's bookkeeping entry for one issued token.
//
// A record exists from issuance until the token's natural expiry, after
// which it may be garbage-collected (the registry stores it with a TTL).
type SessionRecord struct {
	TokenID     string     `json:"token_id"`
	PrincipalID string     `json:"principal_id"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	IPAddress   string     `json:"ip_address,omitempty"`
	UserAgent   string     `json:"user_agent,omitempty"`
}

// Revoked reports whether the record has been explicitly invalidated.
func (r *SessionRecord) Revoked() bool { return r.RevokedAt != nil }

// # Field Identifiers

// Field names used for validation details and JSON payload mapping.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldRefreshToken    = "refresh_token"
)
