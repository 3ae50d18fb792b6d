// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package order

import "context"

// Filter narrows order listings on the management surface.
type Filter struct {
	UserID   string
	Statuses []Status
}

// Repository defines the data access contract for orders.
//
// # Consistency
//
// Items are managed through this same repository because they are always
// written and read in the context of their [Order] and never independently.
type Repository interface {
	// Place atomically checks stock, decrements it, assigns an order
	// number, and persists the order with its items. The order's Items
	// carry ProductID and Quantity on input; the repository fills the
	// captured name and unit price from the catalogue inside the same
	// transaction, then prices the order.
	//
	// Returns a conflict error when any requested product is not
	// purchasable in the requested quantity.
	Place(ctx context.Context, o *Order) error

	// List returns a filtered, paginated slice of orders (items included)
	// and the total count, newest first.
	List(ctx context.Context, f Filter, limit, offset int) ([]*Order, int, error)

	// FindByID returns the order with the given ID, items included.
	FindByID(ctx context.Context, id string) (*Order, error)

	// UpdateStatus transitions the order's status. The repository does
	// not validate the transition; callers consult [CanTransition].
	UpdateStatus(ctx context.Context, id string, status Status) error

	// Cancel marks the order cancelled and returns its reserved stock
	// to the catalogue in one transaction. The repository itself enforces
	// that the order is still in a cancellable status, returning a
	// conflict error otherwise; the caller's pre-check can go stale under
	// concurrent requests.
	Cancel(ctx context.Context, id string) error
}
