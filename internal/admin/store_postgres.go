// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dovanminh/lumera/internal/auth"
	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/apperr"
	"github.com/dovanminh/lumera/internal/platform/database/schema"
	"github.com/dovanminh/lumera/internal/platform/dberr"
)

// PostgresRepository implements [Repository] against users.account.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) List(ctx context.Context, f Filter, limit, offset int) ([]*auth.User, int, error) {
	conditions := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		conditions = append(conditions, fmt.Sprintf("(%s ILIKE %s OR %s ILIKE %s)",
			schema.UserAccount.Email, arg(pattern), schema.UserAccount.DisplayName, arg(pattern)))
	}
	if f.Role != "" {
		conditions = append(conditions, fmt.Sprintf("%s = %s", schema.UserAccount.Role, arg(string(f.Role))))
	}
	if f.Status != "" {
		conditions = append(conditions, fmt.Sprintf("%s = %s", schema.UserAccount.Status, arg(string(f.Status))))
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, schema.UserAccount.Table, where)
	total := 0
	if err := repository.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_users")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s DESC LIMIT %s OFFSET %s`,
		strings.Join(schema.UserAccount.Columns(), ", "), schema.UserAccount.Table, where,
		schema.UserAccount.CreatedAt, arg(limit), arg(offset))

	rows, err := repository.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_users")
	}
	defer rows.Close()

	users := make([]*auth.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.UserAccount.Columns(), ", "), schema.UserAccount.Table, schema.UserAccount.ID)

	rows, err := repository.db.Query(ctx, query, id)
	if err != nil {
		return nil, dberr.Wrap(err, "find_user")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, dberr.Wrap(err, "find_user")
		}
		return nil, apperr.NotFound("User")
	}
	return scanUser(rows)
}

func scanUser(rows pgx.Rows) (*auth.User, error) {
	user := &auth.User{}
	var overrides []string

	err := rows.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
		&user.Role, &user.Status, &user.AllowedIPs, &overrides,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "scan_user")
	}

	for _, v := range overrides {
		user.PermissionOverrides = append(user.PermissionOverrides, authz.Permission(v))
	}
	return user, nil
}

func (repository *PostgresRepository) SetStatus(ctx context.Context, id string, status authz.PrincipalStatus) error {
	return repository.setColumn(ctx, id, schema.UserAccount.Status, string(status), "set_user_status")
}

func (repository *PostgresRepository) SetRole(ctx context.Context, id string, role authz.Role) error {
	return repository.setColumn(ctx, id, schema.UserAccount.Role, string(role), "set_user_role")
}

func (repository *PostgresRepository) SetPermissionOverrides(ctx context.Context, id string, permissions []authz.Permission) error {
	return repository.setColumn(ctx, id, schema.UserAccount.PermOverrides, authz.Strings(permissions), "set_user_permissions")
}

func (repository *PostgresRepository) SetAllowedIPs(ctx context.Context, id string, ips []string) error {
	if ips == nil {
		ips = []string{}
	}
	return repository.setColumn(ctx, id, schema.UserAccount.AllowedIPs, ips, "set_user_allowed_ips")
}

func (repository *PostgresRepository) setColumn(ctx context.Context, id, column string, value any, action string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.UserAccount.Table, column, schema.UserAccount.UpdatedAt, schema.UserAccount.ID)

	tag, err := repository.db.Exec(ctx, query, id, value, time.Now())
	if err != nil {
		return dberr.Wrap(err, action)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
