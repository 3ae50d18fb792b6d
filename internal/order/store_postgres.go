// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dovanminh/lumera/internal/platform/apperr"
	"github.com/dovanminh/lumera/internal/platform/database/schema"
	"github.com/dovanminh/lumera/internal/platform/dberr"
	"github.com/dovanminh/lumera/pkg/uuid"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// # Checkout

// Place runs the whole checkout write inside one transaction.
//
// Product rows are locked with SELECT ... FOR UPDATE before the stock
// check, so two concurrent checkouts for the last unit cannot both
// succeed. Lock order follows the caller-supplied item order; items are
// sorted by product ID first to avoid deadlocks between concurrent
// checkouts holding overlapping carts.
func (repository *PostgresRepository) Place(ctx context.Context, o *Order) error {
	tx, err := repository.db.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin_place_order")
	}
	defer tx.Rollback(ctx)

	sortItemsByProduct(o.Items)

	// ── 1. Lock catalogue rows, capture price and name, check stock ──
	lockQuery := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = $1 FOR UPDATE`,
		schema.ShopProduct.Name, schema.ShopProduct.PriceCents, schema.ShopProduct.Currency,
		schema.ShopProduct.Stock, schema.ShopProduct.Status,
		schema.ShopProduct.Table, schema.ShopProduct.ID)

	for i := range o.Items {
		item := &o.Items[i]

		var (
			name     string
			price    int64
			currency string
			stock    int
			status   string
		)
		err := tx.QueryRow(ctx, lockQuery, item.ProductID).Scan(&name, &price, &currency, &stock, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("Product")
			}
			return dberr.Wrap(err, "lock_product_row")
		}

		if status != "published" || stock < item.Quantity {
			return apperr.Conflict(fmt.Sprintf("Product %q is not available in the requested quantity", name))
		}

		item.ProductName = name
		item.UnitPriceCents = price
		if o.Currency == "" {
			o.Currency = currency
		}
	}

	o.Price()

	// ── 2. Decrement stock ───────────────────────────────────────────
	decrementQuery := fmt.Sprintf(`UPDATE %s SET %s = %s - $2, %s = $3 WHERE %s = $1`,
		schema.ShopProduct.Table, schema.ShopProduct.Stock, schema.ShopProduct.Stock,
		schema.ShopProduct.UpdatedAt, schema.ShopProduct.ID)

	now := time.Now()
	for _, item := range o.Items {
		if _, err := tx.Exec(ctx, decrementQuery, item.ProductID, item.Quantity, now); err != nil {
			return dberr.Wrap(err, "decrement_stock")
		}
	}

	// ── 3. Assign identity and order number ──────────────────────────
	var sequence int64
	if err := tx.QueryRow(ctx, `SELECT nextval('shop.order_number_seq')`).Scan(&sequence); err != nil {
		return dberr.Wrap(err, "next_order_number")
	}

	if o.ID == "" {
		o.ID = uuid.New()
	}
	o.OrderNumber = FormatOrderNumber(sequence)
	o.Status = StatusPending
	o.CreatedAt = now
	o.UpdatedAt = now

	// ── 4. Persist order and items ───────────────────────────────────
	orderQuery := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		schema.ShopOrder.Table, strings.Join(schema.ShopOrder.Columns(), ", "))

	_, err = tx.Exec(ctx, orderQuery,
		o.ID, o.OrderNumber, o.UserID, o.Status, o.SubtotalCents,
		o.ShippingCents, o.TotalCents, o.Currency, o.ShippingAddress,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "insert_order")
	}

	itemQuery := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		schema.ShopOrderItem.Table, strings.Join(schema.ShopOrderItem.Columns(), ", "))

	for i := range o.Items {
		item := &o.Items[i]
		item.ID = uuid.New()
		item.OrderID = o.ID

		_, err := tx.Exec(ctx, itemQuery,
			item.ID, item.OrderID, item.ProductID, item.ProductName,
			item.UnitPriceCents, item.Quantity, item.LineTotalCents,
		)
		if err != nil {
			return dberr.Wrap(err, "insert_order_item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "commit_place_order")
	}
	return nil
}

func sortItemsByProduct(items []Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
}

// # Queries

func (repository *PostgresRepository) List(ctx context.Context, f Filter, limit, offset int) ([]*Order, int, error) {
	conditions := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("%s = %s", schema.ShopOrder.UserID, arg(f.UserID)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("%s = ANY(%s)", schema.ShopOrder.Status, arg(statuses)))
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, schema.ShopOrder.Table, where)
	total := 0
	if err := repository.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_orders")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s DESC LIMIT %s OFFSET %s`,
		strings.Join(schema.ShopOrder.Columns(), ", "), schema.ShopOrder.Table, where,
		schema.ShopOrder.CreatedAt, arg(limit), arg(offset))

	rows, err := repository.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_orders")
	}
	defer rows.Close()

	orders := make([]*Order, 0)
	index := make(map[string]*Order)
	for rows.Next() {
		o := &Order{Items: make([]Item, 0)}
		if err := scanOrder(rows, o); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
		index[o.ID] = o
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_orders")
	}

	if len(orders) > 0 {
		ids := make([]string, len(orders))
		for i, o := range orders {
			ids[i] = o.ID
		}
		if err := repository.attachItems(ctx, index, ids); err != nil {
			return nil, 0, err
		}
	}

	return orders, total, nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.ShopOrder.Columns(), ", "), schema.ShopOrder.Table, schema.ShopOrder.ID)

	o := &Order{Items: make([]Item, 0)}
	row := repository.db.QueryRow(ctx, query, id)
	if err := scanOrderRow(row, o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Order")
		}
		return nil, dberr.Wrap(err, "find_order")
	}

	index := map[string]*Order{o.ID: o}
	if err := repository.attachItems(ctx, index, []string{o.ID}); err != nil {
		return nil, err
	}
	return o, nil
}

func (repository *PostgresRepository) attachItems(ctx context.Context, index map[string]*Order, orderIDs []string) error {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1) ORDER BY %s`,
		strings.Join(schema.ShopOrderItem.Columns(), ", "), schema.ShopOrderItem.Table,
		schema.ShopOrderItem.OrderID, schema.ShopOrderItem.ProductName)

	rows, err := repository.db.Query(ctx, query, orderIDs)
	if err != nil {
		return dberr.Wrap(err, "list_order_items")
	}
	defer rows.Close()

	for rows.Next() {
		item := Item{}
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.UnitPriceCents, &item.Quantity, &item.LineTotalCents)
		if err != nil {
			return dberr.Wrap(err, "scan_order_item")
		}
		if o, ok := index[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(rows pgx.Rows, o *Order) error {
	if err := scanOrderRow(rows, o); err != nil {
		return dberr.Wrap(err, "scan_order")
	}
	return nil
}

func scanOrderRow(row rowScanner, o *Order) error {
	return row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.SubtotalCents,
		&o.ShippingCents, &o.TotalCents, &o.Currency, &o.ShippingAddress,
		&o.CreatedAt, &o.UpdatedAt,
	)
}

// # Mutations

func (repository *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.ShopOrder.Table, schema.ShopOrder.Status, schema.ShopOrder.UpdatedAt, schema.ShopOrder.ID)

	tag, err := repository.db.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return dberr.Wrap(err, "update_order_status")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Order")
	}
	return nil
}

// Cancel flips the order to cancelled and restocks its items atomically.
func (repository *PostgresRepository) Cancel(ctx context.Context, id string) error {
	tx, err := repository.db.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin_cancel_order")
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	// The status guard makes check-then-cancel race-safe: two concurrent
	// cancels update one row between them, and a cancel landing after the
	// order shipped matches nothing. Restock therefore runs at most once.
	cancellable := make([]string, 0, 2)
	for _, status := range CancellableStatuses() {
		cancellable = append(cancellable, string(status))
	}

	statusQuery := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1 AND %s = ANY($4)`,
		schema.ShopOrder.Table, schema.ShopOrder.Status, schema.ShopOrder.UpdatedAt,
		schema.ShopOrder.ID, schema.ShopOrder.Status)

	tag, err := tx.Exec(ctx, statusQuery, id, StatusCancelled, now, cancellable)
	if err != nil {
		return dberr.Wrap(err, "cancel_order")
	}
	if tag.RowsAffected() == 0 {
		// The order moved past a cancellable status (or was already
		// cancelled) after the caller's pre-check.
		return apperr.Conflict("Order can no longer be cancelled")
	}

	restockQuery := fmt.Sprintf(`
		UPDATE %s p SET %s = p.%s + i.%s, %s = $2
		FROM %s i
		WHERE i.%s = $1 AND p.%s = i.%s`,
		schema.ShopProduct.Table, schema.ShopProduct.Stock, schema.ShopProduct.Stock,
		schema.ShopOrderItem.Quantity, schema.ShopProduct.UpdatedAt,
		schema.ShopOrderItem.Table,
		schema.ShopOrderItem.OrderID, schema.ShopProduct.ID, schema.ShopOrderItem.ProductID,
	)

	if _, err := tx.Exec(ctx, restockQuery, id, now); err != nil {
		return dberr.Wrap(err, "restock_cancelled_order")
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "commit_cancel_order")
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
