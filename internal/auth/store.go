// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package auth

import (
	"context"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	// FindByID returns the account with the given ID.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns the account with the given email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Create persists a brand-new user account.
	Create(ctx context.Context, user *User) error

	// UpdatePassword replaces only the user's password hash.
	UpdatePassword(ctx context.Context, userID, newHash string) error
}

// # Session Registry

// SessionRegistry tracks every issued token so that logout and admin
// revocation invalidate a token before its natural expiry.
//
// # Contract
//
//   - Record is idempotent: recording the same token id twice leaves a
//     single record.
//   - Revoke is a no-op for unknown or already-revoked token ids.
//   - IsRevoked treats unknown token ids as not revoked; the codec's expiry
//     check is the backstop for tokens the registry never saw.
//   - Once Revoke returns, every subsequent IsRevoked for that token id —
//     from any goroutine — observes true.
//
// Implementations surface storage outages as errors wrapping
// [authz.ErrRegistryUnavailable]; the evaluator converts those into
// fail-closed denies.
type SessionRegistry interface {

	// Record inserts a session record for a freshly issued token.
	Record(ctx context.Context, record *SessionRecord) error

	// Revoke marks the record as revoked.
	Revoke(ctx context.Context, tokenID string) error

	// IsRevoked reports whether the token id has been revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// ListActiveSessions returns the principal's live (unrevoked, unexpired)
	// session records, ordered by issued-at descending. Display only — it is
	// never consulted for authorization.
	ListActiveSessions(ctx context.Context, principalID string) ([]*SessionRecord, error)

	// RevokeAllForPrincipal revokes every live session of the principal.
	// Used on password change and admin suspension.
	RevokeAllForPrincipal(ctx context.Context, principalID string) error
}
