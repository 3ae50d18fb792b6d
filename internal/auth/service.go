// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dovanminh/lumera/internal/audit"
	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/apperr"
	"github.com/dovanminh/lumera/internal/platform/sec"
	"github.com/dovanminh/lumera/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing and decoding signed tokens.
type TokenProvider interface {

	// Issue creates a signed token embedding the snapshot, kind, and a fresh
	// unique token identifier.
	Issue(snapshot sec.PrincipalSnapshot, kind sec.TokenKind, timeToLive time.Duration) (string, error)

	// Decode verifies structure, signature, and expiry, returning the claims.
	Decode(tokenString string) (*sec.AuthClaims, error)
}

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, login, or
// token issuance logic must be reviewed by the security team.
type Service struct {
	userRepository  UserRepository
	sessionRegistry SessionRegistry
	tokenProvider   TokenProvider
	recorder        audit.Recorder
}

// NewService constructs a new [Service] with its dependencies.
func NewService(users UserRepository, sessions SessionRegistry, tokens TokenProvider, recorder audit.Recorder) *Service {
	return &Service{
		userRepository:  users,
		sessionRegistry: sessions,
		tokenProvider:   tokens,
		recorder:        recorder,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new customer.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Register validates, hashes, and persists a brand-new customer account.
//
// New accounts always start as active customers; staff roles are assigned
// only through the admin user-management flow.
func (service *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {

	// Verify email uniqueness. Return a client-safe Conflict error.
	_, err := service.userRepository.FindByEmail(ctx, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         authz.RoleCustomer,
		Status:       authz.StatusActive,
	}

	if err := service.userRepository.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// TokenPair represents a successfully established session: one access token
// and one refresh token, sharing a subject but never a token identifier.
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	User                  *User     `json:"user"`
}

// Login validates credentials and issues a fresh token pair.
//
// Lookup failure, a wrong password, and a non-active account all produce the
// SAME generic unauthorized error to prevent account enumeration and status
// probing.
func (service *Service) Login(ctx context.Context, input LoginInput) (*TokenPair, error) {
	user, err := service.userRepository.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, service.loginRejected(ctx, "", input.IPAddress)
	}

	// bcrypt comparison is constant-time.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, service.loginRejected(ctx, user.ID, input.IPAddress)
	}

	if user.Status != authz.StatusActive {
		return nil, service.loginRejected(ctx, user.ID, input.IPAddress)
	}

	pair, err := service.issuePair(ctx, user, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	service.recorder.Record(ctx, audit.Event{
		ActorID:    user.ID,
		Action:     audit.ActionLogin,
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  input.IPAddress,
	})
	return pair, nil
}

// loginRejected records the failed attempt and returns the one generic
// credential error used for every rejection cause.
func (service *Service) loginRejected(ctx context.Context, userID, ipAddress string) error {
	service.recorder.Record(ctx, audit.Event{
		ActorID:    userID,
		Action:     audit.ActionLoginFailed,
		EntityType: "user",
		EntityID:   userID,
		IPAddress:  ipAddress,
	})
	return apperr.Unauthorized("Invalid login credentials")
}

// issuePair mints an access+refresh token pair for the user and records both
// in the session registry.
func (service *Service) issuePair(ctx context.Context, user *User, userAgent, ipAddress string) (*TokenPair, error) {
	id, email, role, permissions := user.Snapshot()
	snapshot := sec.PrincipalSnapshot{UserID: id, Email: email, Role: role, Permissions: permissions}

	accessToken, err := service.tokenProvider.Issue(snapshot, sec.KindAccess, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}
	refreshToken, err := service.tokenProvider.Issue(snapshot, sec.KindRefresh, RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	// Record both halves so logout and admin revocation can kill either
	// before its natural expiry.
	for _, tokenString := range []string{accessToken, refreshToken} {
		claims, err := service.tokenProvider.Decode(tokenString)
		if err != nil {
			return nil, fmt.Errorf("auth_service_decode_own_token_failed: %w", err)
		}
		record := &SessionRecord{
			TokenID:     claims.TokenID(),
			PrincipalID: user.ID,
			IssuedAt:    claims.IssuedAt.Time,
			ExpiresAt:   claims.ExpiresAt.Time,
			IPAddress:   ipAddress,
			UserAgent:   userAgent,
		}
		if err := service.sessionRegistry.Record(ctx, record); err != nil {
			return nil, service.registryFailure(err)
		}
	}

	return &TokenPair{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  time.Now().Add(AccessTokenTTL),
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: time.Now().Add(RefreshTokenTTL),
		User:                  user,
	}, nil
}

// # Session Management

// Refresh implements refresh-token rotation.
//
// The presented refresh token is verified, checked against the registry, and
// revoked before a new pair is issued — a replayed refresh token is dead on
// arrival.
func (service *Service) Refresh(ctx context.Context, refreshToken, userAgent, ipAddress string) (*TokenPair, error) {
	claims, err := service.tokenProvider.Decode(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	if claims.Kind != sec.KindRefresh {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	revoked, err := service.sessionRegistry.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, service.registryFailure(err)
	}
	if revoked {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	user, err := service.userRepository.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("User not found or suspended")
	}
	if user.Status != authz.StatusActive {
		return nil, apperr.Unauthorized("User not found or suspended")
	}

	// Rotation: the old refresh token must never be usable again.
	if err := service.sessionRegistry.Revoke(ctx, claims.TokenID()); err != nil {
		return nil, service.registryFailure(err)
	}

	pair, err := service.issuePair(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	service.recorder.Record(ctx, audit.Event{
		ActorID:    user.ID,
		Action:     audit.ActionTokenRefresh,
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  ipAddress,
	})
	return pair, nil
}

// Logout revokes the caller's access token and, when provided, the paired
// refresh token. Logout is idempotent: revoking an unknown or already-revoked
// token id is not an error.
func (service *Service) Logout(ctx context.Context, claims *sec.AuthClaims, refreshToken string) error {
	if err := service.sessionRegistry.Revoke(ctx, claims.TokenID()); err != nil {
		return service.registryFailure(err)
	}

	service.recorder.Record(ctx, audit.Event{
		ActorID:    claims.UserID,
		Action:     audit.ActionLogout,
		EntityType: "user",
		EntityID:   claims.UserID,
	})

	if refreshToken == "" {
		return nil
	}

	// A malformed or expired refresh token is already unusable; logout still
	// succeeds.
	refreshClaims, err := service.tokenProvider.Decode(refreshToken)
	if err != nil || refreshClaims.UserID != claims.UserID {
		return nil
	}
	if err := service.sessionRegistry.Revoke(ctx, refreshClaims.TokenID()); err != nil {
		return service.registryFailure(err)
	}
	return nil
}

// ListSessions returns the caller's live sessions, newest first.
func (service *Service) ListSessions(ctx context.Context, principalID string) ([]*SessionRecord, error) {
	records, err := service.sessionRegistry.ListActiveSessions(ctx, principalID)
	if err != nil {
		return nil, service.registryFailure(err)
	}
	return records, nil
}

// RevokeSession revokes one of the caller's own sessions by token id.
// Ownership is verified against the registry before revoking.
func (service *Service) RevokeSession(ctx context.Context, principalID, tokenID string) error {
	records, err := service.sessionRegistry.ListActiveSessions(ctx, principalID)
	if err != nil {
		return service.registryFailure(err)
	}

	for _, record := range records {
		if record.TokenID == tokenID {
			if err := service.sessionRegistry.Revoke(ctx, tokenID); err != nil {
				return service.registryFailure(err)
			}
			service.recorder.Record(ctx, audit.Event{
				ActorID:    principalID,
				Action:     audit.ActionSessionRevoked,
				EntityType: "session",
				EntityID:   tokenID,
			})
			return nil
		}
	}
	return apperr.NotFound("Session")
}

// # Password Management

// ChangePassword verifies the current password, rotates the hash, and
// revokes every live session so other devices must log in again.
func (service *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := service.userRepository.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	// Security side effect: force re-login everywhere.
	if err := service.sessionRegistry.RevokeAllForPrincipal(ctx, userID); err != nil {
		return service.registryFailure(err)
	}

	service.recorder.Record(ctx, audit.Event{
		ActorID:    userID,
		Action:     audit.ActionPasswordChange,
		EntityType: "user",
		EntityID:   userID,
	})
	return nil
}

// registryFailure converts a session-registry outage into a retryable 503.
// Anything else is an unexpected internal error.
func (service *Service) registryFailure(err error) error {
	if errors.Is(err, authz.ErrRegistryUnavailable) {
		return apperr.ServiceUnavailable("Session storage is temporarily unavailable")
	}
	return apperr.Internal(err)
}
