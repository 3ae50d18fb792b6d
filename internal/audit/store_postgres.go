// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dovanminh/lumera/internal/platform/database/schema"
	"github.com/dovanminh/lumera/internal/platform/dberr"
	"github.com/dovanminh/lumera/pkg/uuid"
)

// PostgresRepository implements [Repository] against system.auditlog.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) Insert(ctx context.Context, event *Event) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		schema.SystemAuditLog.Table,
		schema.SystemAuditLog.ID, schema.SystemAuditLog.ActorID, schema.SystemAuditLog.Action,
		schema.SystemAuditLog.EntityType, schema.SystemAuditLog.EntityID, schema.SystemAuditLog.Detail,
		schema.SystemAuditLog.IPAddress, schema.SystemAuditLog.CreatedAt,
	)

	if event.ID == "" {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := repository.db.Exec(ctx, query,
		event.ID, event.ActorID, event.Action, event.EntityType,
		event.EntityID, event.Detail, event.IPAddress, event.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "insert_audit_event")
	}
	return nil
}

func (repository *PostgresRepository) List(ctx context.Context, f Filter, limit, offset int) ([]*Event, int, error) {
	conditions := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ActorID != "" {
		conditions = append(conditions, fmt.Sprintf("%s = %s", schema.SystemAuditLog.ActorID, arg(f.ActorID)))
	}
	if f.Action != "" {
		conditions = append(conditions, fmt.Sprintf("%s = %s", schema.SystemAuditLog.Action, arg(string(f.Action))))
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, schema.SystemAuditLog.Table, where)
	total := 0
	if err := repository.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_audit_events")
	}

	columns := strings.Join([]string{
		schema.SystemAuditLog.ID, schema.SystemAuditLog.ActorID, schema.SystemAuditLog.Action,
		schema.SystemAuditLog.EntityType, schema.SystemAuditLog.EntityID, schema.SystemAuditLog.Detail,
		schema.SystemAuditLog.IPAddress, schema.SystemAuditLog.CreatedAt,
	}, ", ")

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s DESC LIMIT %s OFFSET %s`,
		columns, schema.SystemAuditLog.Table, where,
		schema.SystemAuditLog.CreatedAt, arg(limit), arg(offset))

	rows, err := repository.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_audit_events")
	}
	defer rows.Close()

	events := make([]*Event, 0)
	for rows.Next() {
		e := &Event{}
		err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID,
			&e.Detail, &e.IPAddress, &e.CreatedAt)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_audit_event")
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

var _ Repository = (*PostgresRepository)(nil)
