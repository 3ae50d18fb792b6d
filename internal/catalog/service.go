// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package catalog

import (
	"context"
	"log/slog"

	"github.com/dovanminh/lumera/internal/platform/validate"
	"github.com/dovanminh/lumera/pkg/slug"
	"github.com/dovanminh/lumera/pkg/uuid"
)

// # Service Layer

// Service orchestrates the business logic for the shop catalogue.
// It is the single entry point for browsing and managing products
// and categories.
type Service struct {
	categoryRepo CategoryRepository
	productRepo  ProductRepository
	logger       *slog.Logger
}

// NewService constructs a new [Service] with its required repositories.
func NewService(categoryRepo CategoryRepository, productRepo ProductRepository, logger *slog.Logger) *Service {
	return &Service{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		logger:       logger,
	}
}

// # Category Operations

// ListCategories returns all categories ordered for navigation menus.
func (service *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	return service.categoryRepo.List(ctx)
}

// GetCategory fetches a single category by UUID or SEO slug.
func (service *Service) GetCategory(ctx context.Context, identifier string) (*Category, error) {
	if isUUID(identifier) {
		return service.categoryRepo.FindByID(ctx, identifier)
	}
	return service.categoryRepo.FindBySlug(ctx, identifier)
}

/*
CreateCategory adds a new category to the navigation tree.

Description: Validates the name, generates a stable UUID v7 identity
and an SEO-friendly slug, and verifies the parent exists when one
is given.

Parameters:
  - ctx: context.Context
  - category: *Category (The entity to be persisted)

Returns:
  - error: Validation or persistence errors
*/
func (service *Service) CreateCategory(ctx context.Context, category *Category) error {

	// Business attribute validation
	validator := &validate.Validator{}
	validator.Required(FieldName, category.Name).MaxLen(FieldName, category.Name, 200)
	if err := validator.Err(); err != nil {
		return err
	}

	// Parent integrity check
	if category.ParentID != nil {
		if _, err := service.categoryRepo.FindByID(ctx, *category.ParentID); err != nil {
			return err
		}
	}

	// Identity & Slug generation
	if category.ID == "" {
		category.ID = uuid.New()
	}
	if category.Slug == "" {
		category.Slug = slug.From(category.Name)
	}

	if err := service.categoryRepo.Create(ctx, category); err != nil {
		return err
	}

	service.logger.Info("category_created",
		slog.String("category_id", category.ID),
		slog.String("name", category.Name),
	)

	return nil
}

// UpdateCategory applies partial modifications to an existing category.
func (service *Service) UpdateCategory(ctx context.Context, category *Category) error {
	existing, err := service.categoryRepo.FindByID(ctx, category.ID)
	if err != nil {
		return err
	}

	validator := &validate.Validator{}
	if category.Name != "" {
		validator.MaxLen(FieldName, category.Name, 200)
		existing.Name = category.Name
	}
	if category.Slug != "" {
		validator.Slug(FieldSlug, category.Slug)
		existing.Slug = category.Slug
	}
	if err := validator.Err(); err != nil {
		return err
	}

	if category.ParentID != nil {
		if *category.ParentID == category.ID {
			return validate.RequiredError(FieldParentID, "Category cannot be its own parent")
		}
		if _, err := service.categoryRepo.FindByID(ctx, *category.ParentID); err != nil {
			return err
		}
		existing.ParentID = category.ParentID
	}
	if category.SortOrder != 0 {
		existing.SortOrder = category.SortOrder
	}

	if err := service.categoryRepo.Update(ctx, existing); err != nil {
		return err
	}

	service.logger.Info("category_updated", slog.String("category_id", category.ID))

	return nil
}

// DeleteCategory removes a category entirely.
func (service *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := service.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}

	service.logger.Warn("category_deleted", slog.String("category_id", id))

	return nil
}

// # Product Lookups

/*
ListProducts retrieves a paginated and filtered collection of products.

Description: Filter criteria are passed straight to the repository so
that narrowing and sorting happen at the database level. Callers on
the public surface should restrict Statuses to [StatusPublished];
the admin surface may list every lifecycle state.

Parameters:
  - ctx: context.Context
  - filter: Filter (Criteria for category, price range, search, etc.)
  - limit: int (Max records to return)
  - offset: int (Pagination cursor)

Returns:
  - []*Product: Slice of matching products
  - int: Total count of records matching the filter
  - error: System or repository level errors
*/
func (service *Service) ListProducts(ctx context.Context, filter Filter, limit, offset int) ([]*Product, int, error) {
	return service.productRepo.List(ctx, filter, limit, offset)
}

// GetProduct fetches a single product by UUID or SEO slug.
func (service *Service) GetProduct(ctx context.Context, identifier string) (*Product, error) {
	if isUUID(identifier) {
		return service.productRepo.FindByID(ctx, identifier)
	}
	return service.productRepo.FindBySlug(ctx, identifier)
}

// # Product Management

/*
CreateProduct initialises a new sellable item.

Description: Performs business validation on the metadata, verifies the
target category exists, generates a stable UUID v7 identity, and creates
an SEO-friendly slug before persisting. New products always start in
[StatusDraft] unless an explicit status is supplied.

Parameters:
  - ctx: context.Context
  - product: *Product (The entity to be persisted)

Returns:
  - error: Validation or persistence errors
*/
func (service *Service) CreateProduct(ctx context.Context, product *Product) error {

	if product.Status == "" {
		product.Status = StatusDraft
	}
	if product.Currency == "" {
		product.Currency = "USD"
	}

	// Business attribute validation
	validator := &validate.Validator{}
	validator.Required(FieldName, product.Name).MaxLen(FieldName, product.Name, 500)
	validator.Required(FieldCategoryID, product.CategoryID)
	validator.Custom(FieldPrice, product.PriceCents < 0, "Price must not be negative")
	validator.Custom(FieldStock, product.Stock < 0, "Stock must not be negative")
	validator.Currency(FieldCurrency, product.Currency)
	validator.OneOf(FieldStatus, string(product.Status),
		string(StatusDraft),
		string(StatusPublished),
		string(StatusArchived),
	)
	if err := validator.Err(); err != nil {
		return err
	}

	// Category integrity check
	if _, err := service.categoryRepo.FindByID(ctx, product.CategoryID); err != nil {
		return err
	}

	// Identity & Slug generation
	if product.ID == "" {
		product.ID = uuid.New()
	}
	if product.Slug == "" {
		product.Slug = slug.From(product.Name)
	}

	if err := service.productRepo.Create(ctx, product); err != nil {
		return err
	}

	service.logger.Info("product_created",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)

	return nil
}

/*
UpdateProduct applies modifications to an existing product.

Description: Supports partial updates. Set fields in the input entity
overwrite existing values; zero values are left untouched except for
Description and ImageURLs which replace wholesale when non-nil.

Parameters:
  - ctx: context.Context
  - product: *Product (Updated attributes, ID required)

Returns:
  - error: Validation or persistence errors
*/
func (service *Service) UpdateProduct(ctx context.Context, product *Product) error {
	existing, err := service.productRepo.FindByID(ctx, product.ID)
	if err != nil {
		return err
	}

	validator := &validate.Validator{}
	if product.Name != "" {
		validator.MaxLen(FieldName, product.Name, 500)
		existing.Name = product.Name
	}
	if product.Slug != "" {
		validator.Slug(FieldSlug, product.Slug)
		existing.Slug = product.Slug
	}
	if product.Status != "" {
		validator.OneOf(FieldStatus, string(product.Status),
			string(StatusDraft),
			string(StatusPublished),
			string(StatusArchived),
		)
		existing.Status = product.Status
	}
	if product.PriceCents != 0 {
		validator.Custom(FieldPrice, product.PriceCents < 0, "Price must not be negative")
		existing.PriceCents = product.PriceCents
	}
	if product.Currency != "" {
		validator.Currency(FieldCurrency, product.Currency)
		existing.Currency = product.Currency
	}
	if err := validator.Err(); err != nil {
		return err
	}

	if product.CategoryID != "" && product.CategoryID != existing.CategoryID {
		if _, err := service.categoryRepo.FindByID(ctx, product.CategoryID); err != nil {
			return err
		}
		existing.CategoryID = product.CategoryID
	}
	if product.Stock != 0 {
		existing.Stock = max(product.Stock, 0)
	}
	if product.Description != nil {
		existing.Description = product.Description
	}
	if product.ImageURLs != nil {
		existing.ImageURLs = product.ImageURLs
	}

	if err := service.productRepo.Update(ctx, existing); err != nil {
		return err
	}

	service.logger.Info("product_updated", slog.String("product_id", product.ID))

	return nil
}

// PublishProduct flips a product into the published lifecycle state.
func (service *Service) PublishProduct(ctx context.Context, id string) error {
	return service.transition(ctx, id, StatusPublished)
}

// ArchiveProduct retires a product from the storefront without deleting it.
func (service *Service) ArchiveProduct(ctx context.Context, id string) error {
	return service.transition(ctx, id, StatusArchived)
}

func (service *Service) transition(ctx context.Context, id string, status ProductStatus) error {
	if err := service.productRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	service.logger.Info("product_status_changed",
		slog.String("product_id", id),
		slog.String("status", string(status)),
	)

	return nil
}

// DeleteProduct removes a product permanently.
func (service *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := service.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	service.logger.Warn("product_deleted", slog.String("product_id", id))

	return nil
}

// # Internal Helpers

// isUUID returns true if the string matches the standard UUID length.
func isUUID(s string) bool {
	return len(s) == 36
}
