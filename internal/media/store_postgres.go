// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dovanminh/lumera/internal/platform/apperr"
	"github.com/dovanminh/lumera/internal/platform/database/schema"
	"github.com/dovanminh/lumera/internal/platform/dberr"
)

// Repository defines the data access contract for upload metadata.
type Repository interface {
	Insert(ctx context.Context, m *Media) error
	FindByID(ctx context.Context, id string) (*Media, error)
	List(ctx context.Context, limit, offset int) ([]*Media, int, error)
	Delete(ctx context.Context, id string) error
}

// PostgresRepository implements [Repository] against shop.media.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) Insert(ctx context.Context, m *Media) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		schema.ShopMedia.Table, strings.Join(schema.ShopMedia.Columns(), ", "))

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	_, err := repository.db.Exec(ctx, query,
		m.ID, m.OwnerID, m.FileName, m.ContentType, m.SizeBytes, m.URL, m.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "insert_media")
	}
	return nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Media, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.ShopMedia.Columns(), ", "), schema.ShopMedia.Table, schema.ShopMedia.ID)

	m := &Media{}
	err := repository.db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.OwnerID, &m.FileName, &m.ContentType, &m.SizeBytes, &m.URL, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Media")
		}
		return nil, dberr.Wrap(err, "find_media")
	}
	return m, nil
}

func (repository *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*Media, int, error) {
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, schema.ShopMedia.Table)
	total := 0
	if err := repository.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_media")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC LIMIT $1 OFFSET $2`,
		strings.Join(schema.ShopMedia.Columns(), ", "), schema.ShopMedia.Table, schema.ShopMedia.CreatedAt)

	rows, err := repository.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_media")
	}
	defer rows.Close()

	items := make([]*Media, 0)
	for rows.Next() {
		m := &Media{}
		err := rows.Scan(&m.ID, &m.OwnerID, &m.FileName, &m.ContentType, &m.SizeBytes, &m.URL, &m.CreatedAt)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_media")
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (repository *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.ShopMedia.Table, schema.ShopMedia.ID)

	tag, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_media")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Media")
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
