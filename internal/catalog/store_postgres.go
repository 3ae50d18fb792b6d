// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package catalog

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

// # Category Repository

type PostgresCategoryRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCategoryRepository(db *pgxpool.Pool) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

func (repository *PostgresCategoryRepository) List(ctx context.Context) ([]*Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s ASC, %s ASC`,
		strings.Join(schema.ShopCategory.Columns(), ", "), schema.ShopCategory.Table,
		schema.ShopCategory.SortOrder, schema.ShopCategory.Name)

	rows, err := repository.db.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_categories")
	}
	defer rows.Close()

	categories := make([]*Category, 0)
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name, &c.Slug, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_category")
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (repository *PostgresCategoryRepository) FindByID(ctx context.Context, id string) (*Category, error) {
	return repository.findBy(ctx, schema.ShopCategory.ID, id)
}

func (repository *PostgresCategoryRepository) FindBySlug(ctx context.Context, slug string) (*Category, error) {
	return repository.findBy(ctx, schema.ShopCategory.Slug, slug)
}

func (repository *PostgresCategoryRepository) findBy(ctx context.Context, column, value string) (*Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.ShopCategory.Columns(), ", "), schema.ShopCategory.Table, column)

	c := &Category{}
	err := repository.db.QueryRow(ctx, query, value).Scan(&c.ID, &c.ParentID, &c.Name, &c.Slug, &c.SortOrder, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Category")
		}
		return nil, dberr.Wrap(err, "find_category")
	}
	return c, nil
}

func (repository *PostgresCategoryRepository) Create(ctx context.Context, c *Category) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6)`,
		schema.ShopCategory.Table, strings.Join(schema.ShopCategory.Columns(), ", "))

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := repository.db.Exec(ctx, query, c.ID, c.ParentID, c.Name, c.Slug, c.SortOrder, c.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_category")
	}
	return nil
}

func (repository *PostgresCategoryRepository) Update(ctx context.Context, c *Category) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5 WHERE %s = $1`,
		schema.ShopCategory.Table,
		schema.ShopCategory.ParentID, schema.ShopCategory.Name,
		schema.ShopCategory.Slug, schema.ShopCategory.SortOrder,
		schema.ShopCategory.ID)

	tag, err := repository.db.Exec(ctx, query, c.ID, c.ParentID, c.Name, c.Slug, c.SortOrder)
	if err != nil {
		return dberr.Wrap(err, "update_category")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Category")
	}
	return nil
}

func (repository *PostgresCategoryRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.ShopCategory.Table, schema.ShopCategory.ID)

	tag, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_category")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Category")
	}
	return nil
}

// # Product Repository

type PostgresProductRepository struct {
	db *pgxpool.Pool
}

func NewPostgresProductRepository(db *pgxpool.Pool) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

// allowed sort columns keyed by API sort keys
var productSortColumns = map[string]string{
	"latest": schema.ShopProduct.CreatedAt,
	"name":   schema.ShopProduct.Name,
	"price":  schema.ShopProduct.PriceCents,
}

func (repository *PostgresProductRepository) List(ctx context.Context, f Filter, limit, offset int) ([]*Product, int, error) {
	conditions := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Query != "" {
		conditions = append(conditions, fmt.Sprintf("p.%s ILIKE %s", schema.ShopProduct.Name, arg("%"+f.Query+"%")))
	}
	if f.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("p.%s = %s", schema.ShopProduct.CategoryID, arg(f.CategoryID)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("p.%s = ANY(%s)", schema.ShopProduct.Status, arg(statuses)))
	}
	if f.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("p.%s >= %s", schema.ShopProduct.PriceCents, arg(*f.MinPrice)))
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("p.%s <= %s", schema.ShopProduct.PriceCents, arg(*f.MaxPrice)))
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s p WHERE %s`, schema.ShopProduct.Table, where)
	total := 0
	if err := repository.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_products")
	}

	sortColumn, ok := productSortColumns[f.Sort]
	if !ok {
		sortColumn = schema.ShopProduct.CreatedAt
	}
	direction := "DESC"
	if strings.EqualFold(f.SortDir, "asc") {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT p.%s, c.%s, c.%s, c.%s, c.%s, c.%s, c.%s
		FROM %s p
		JOIN %s c ON p.%s = c.%s
		WHERE %s
		ORDER BY p.%s %s
		LIMIT %s OFFSET %s`,
		strings.Join(schema.ShopProduct.Columns(), ", p."),
		schema.ShopCategory.ID, schema.ShopCategory.ParentID, schema.ShopCategory.Name,
		schema.ShopCategory.Slug, schema.ShopCategory.SortOrder, schema.ShopCategory.CreatedAt,
		schema.ShopProduct.Table, schema.ShopCategory.Table,
		schema.ShopProduct.CategoryID, schema.ShopCategory.ID,
		where, sortColumn, direction,
		arg(limit), arg(offset),
	)

	rows, err := repository.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_products")
	}
	defer rows.Close()

	products := make([]*Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (repository *PostgresProductRepository) FindByID(ctx context.Context, id string) (*Product, error) {
	return repository.findBy(ctx, schema.ShopProduct.ID, id)
}

func (repository *PostgresProductRepository) FindBySlug(ctx context.Context, slug string) (*Product, error) {
	return repository.findBy(ctx, schema.ShopProduct.Slug, slug)
}

func (repository *PostgresProductRepository) findBy(ctx context.Context, column, value string) (*Product, error) {
	query := fmt.Sprintf(`
		SELECT p.%s, c.%s, c.%s, c.%s, c.%s, c.%s, c.%s
		FROM %s p
		JOIN %s c ON p.%s = c.%s
		WHERE p.%s = $1`,
		strings.Join(schema.ShopProduct.Columns(), ", p."),
		schema.ShopCategory.ID, schema.ShopCategory.ParentID, schema.ShopCategory.Name,
		schema.ShopCategory.Slug, schema.ShopCategory.SortOrder, schema.ShopCategory.CreatedAt,
		schema.ShopProduct.Table, schema.ShopCategory.Table,
		schema.ShopProduct.CategoryID, schema.ShopCategory.ID,
		column,
	)

	rows, err := repository.db.Query(ctx, query, value)
	if err != nil {
		return nil, dberr.Wrap(err, "find_product")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, dberr.Wrap(err, "find_product")
		}
		return nil, apperr.NotFound("Product")
	}
	return scanProduct(rows)
}

func scanProduct(rows pgx.Rows) (*Product, error) {
	p := &Product{}
	c := &Category{}
	err := rows.Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.PriceCents,
		&p.Currency, &p.Stock, &p.Status, &p.ImageURLs, &p.CreatedAt, &p.UpdatedAt,
		&c.ID, &c.ParentID, &c.Name, &c.Slug, &c.SortOrder, &c.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "scan_product")
	}
	p.Category = c
	return p, nil
}

func (repository *PostgresProductRepository) Create(ctx context.Context, p *Product) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		schema.ShopProduct.Table, strings.Join(schema.ShopProduct.Columns(), ", "))

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := repository.db.Exec(ctx, query,
		p.ID, p.CategoryID, p.Name, p.Slug, p.Description, p.PriceCents,
		p.Currency, p.Stock, p.Status, p.ImageURLs, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "create_product")
	}
	return nil
}

func (repository *PostgresProductRepository) Update(ctx context.Context, p *Product) error {
	query := fmt.Sprintf(`UPDATE %s SET
			%s = $2, %s = $3, %s = $4, %s = $5, %s = $6,
			%s = $7, %s = $8, %s = $9, %s = $10, %s = $11
		WHERE %s = $1`,
		schema.ShopProduct.Table,
		schema.ShopProduct.CategoryID, schema.ShopProduct.Name, schema.ShopProduct.Slug,
		schema.ShopProduct.Description, schema.ShopProduct.PriceCents, schema.ShopProduct.Currency,
		schema.ShopProduct.Stock, schema.ShopProduct.Status, schema.ShopProduct.ImageURLs,
		schema.ShopProduct.UpdatedAt,
		schema.ShopProduct.ID,
	)

	p.UpdatedAt = time.Now()

	tag, err := repository.db.Exec(ctx, query,
		p.ID, p.CategoryID, p.Name, p.Slug, p.Description, p.PriceCents,
		p.Currency, p.Stock, p.Status, p.ImageURLs, p.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "update_product")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Product")
	}
	return nil
}

func (repository *PostgresProductRepository) UpdateStatus(ctx context.Context, id string, status ProductStatus) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.ShopProduct.Table, schema.ShopProduct.Status, schema.ShopProduct.UpdatedAt, schema.ShopProduct.ID)

	tag, err := repository.db.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return dberr.Wrap(err, "update_product_status")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Product")
	}
	return nil
}

func (repository *PostgresProductRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.ShopProduct.Table, schema.ShopProduct.ID)

	tag, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_product")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Product")
	}
	return nil
}

var _ CategoryRepository = (*PostgresCategoryRepository)(nil)
var _ ProductRepository = (*PostgresProductRepository)(nil)
