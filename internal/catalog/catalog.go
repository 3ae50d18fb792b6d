// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package catalog

import "time"

// ProductStatus is the publication lifecycle state of a product.
type ProductStatus string

const (
	StatusDraft     ProductStatus = "draft"
	StatusPublished ProductStatus = "published"
	StatusArchived  ProductStatus = "archived"
)

// Category groups products for navigation. Categories form a single-level
// tree via ParentID.
type Category struct {
	ID        string    `json:"id"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"-"`
}

// Product is a sellable item. Prices are stored in minor currency units
// (cents) to keep arithmetic exact.
type Product struct {
	ID          string        `json:"id"`
	CategoryID  string        `json:"category_id"`
	Category    *Category     `json:"category,omitempty"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description *string       `json:"description"`
	PriceCents  int64         `json:"price_cents"`
	Currency    string        `json:"currency"`
	Stock       int           `json:"stock"`
	Status      ProductStatus `json:"status"`
	ImageURLs   []string      `json:"image_urls,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Purchasable reports whether the product can currently be ordered.
func (p *Product) Purchasable(quantity int) bool {
	return p.Status == StatusPublished && quantity > 0 && p.Stock >= quantity
}

// Field identifiers used in validation error details.
const (
	FieldName       = "name"
	FieldSlug       = "slug"
	FieldCategoryID = "category_id"
	FieldPrice      = "price_cents"
	FieldCurrency   = "currency"
	FieldStock      = "stock"
	FieldStatus     = "status"
	FieldParentID   = "parent_id"
	FieldSortOrder  = "sort_order"
)
