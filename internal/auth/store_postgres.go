// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

// PostgreSQL implementation of the auth storage contracts.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/apperr"
	"github.com/dovanminh/lumera/internal/platform/database/schema"
)

// # User Repository

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record into the users.account table.
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		schema.UserAccount.Table, strings.Join(schema.UserAccount.Columns(), ", "))

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.Role,
		user.Status,
		user.AllowedIPs,
		authz.Strings(user.PermissionOverrides),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}
	return nil
}

// FindByID returns the account with the given ID.
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.UserAccount.Columns(), ", "), schema.UserAccount.Table, schema.UserAccount.ID)
	return repository.scanOne(ctx, query, id)
}

// FindByEmail returns the account with the given email.
func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.UserAccount.Columns(), ", "), schema.UserAccount.Table, schema.UserAccount.Email)
	return repository.scanOne(ctx, query, email)
}

// UpdatePassword replaces only the user's password hash.
func (repository *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, newHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.Password, schema.UserAccount.UpdatedAt, schema.UserAccount.ID)

	tag, err := repository.pool.Exec(ctx, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// scanOne executes a single-row user query and maps storage errors.
func (repository *PostgresUserRepository) scanOne(ctx context.Context, query string, args ...any) (*User, error) {
	user := &User{}
	var overrides []string

	err := repository.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.Status,
		&user.AllowedIPs,
		&overrides,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_failed: %w", err)
	}

	user.PermissionOverrides = toPermissions(overrides)
	return user, nil
}

func toPermissions(values []string) []authz.Permission {
	if len(values) == 0 {
		return nil
	}
	out := make([]authz.Permission, len(values))
	for i, v := range values {
		out[i] = authz.Permission(v)
	}
	return out
}

// # Principal Directory

// LookupPrincipal implements [authz.PrincipalDirectory].
//
// It is called on EVERY protected request, returning the freshly read status,
// role, allow-list, and overrides; the evaluator never trusts the snapshot
// embedded in a token. Storage outages are tagged as registry unavailability
// so the evaluator fails closed.
func (repository *PostgresUserRepository) LookupPrincipal(ctx context.Context, principalID string) (*authz.PrincipalState, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.UserAccount.Role, schema.UserAccount.Status, schema.UserAccount.AllowedIPs,
		schema.UserAccount.PermOverrides, schema.UserAccount.Table, schema.UserAccount.ID)

	state := &authz.PrincipalState{}
	var overrides []string

	err := repository.pool.QueryRow(ctx, query, principalID).Scan(
		&state.Role,
		&state.Status,
		&state.AllowedIPs,
		&overrides,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A token whose subject no longer exists authenticates but can do
			// nothing: report the account as inactive rather than erroring.
			return &authz.PrincipalState{Status: authz.StatusInactive}, nil
		}
		return nil, fmt.Errorf("postgres_principal_lookup_failed: %w: %v", authz.ErrRegistryUnavailable, err)
	}

	state.PermissionOverrides = toPermissions(overrides)
	return state, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ authz.PrincipalDirectory = (*PostgresUserRepository)(nil)
