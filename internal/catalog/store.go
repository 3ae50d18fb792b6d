// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package catalog

import "context"

// Filter narrows product listings. Zero values mean "no constraint".
type Filter struct {
	Query      string
	CategoryID string
	Statuses   []ProductStatus
	MinPrice   *int64
	MaxPrice   *int64
	Sort       string
	SortDir    string
}

// CategoryRepository defines the data access contract for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]*Category, error)
	FindByID(ctx context.Context, id string) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
}

// ProductRepository defines the data access contract for products.
//
// # Architecture
//
// The interface lives in the domain package because the service layer
// (the consumer) defines what it needs; the pgx implementation sits
// alongside in store_postgres.go.
type ProductRepository interface {
	// List returns a filtered, paginated slice of products and the total count.
	List(ctx context.Context, f Filter, limit, offset int) ([]*Product, int, error)

	// FindByID returns the product with the given ID, or a not-found error.
	FindByID(ctx context.Context, id string) (*Product, error)

	// FindBySlug returns the product with the given slug, or a not-found error.
	FindBySlug(ctx context.Context, slug string) (*Product, error)

	// Create persists a new product. The caller sets ID and Slug beforehand.
	Create(ctx context.Context, p *Product) error

	// Update persists changes to an existing product's mutable fields.
	Update(ctx context.Context, p *Product) error

	// UpdateStatus transitions only the publication status.
	UpdateStatus(ctx context.Context, id string, status ProductStatus) error

	// Delete removes the product row entirely.
	Delete(ctx context.Context, id string) error
}
