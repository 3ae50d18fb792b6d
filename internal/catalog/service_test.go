// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package catalog_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dovanminh/lumera/internal/catalog"
	"github.com/dovanminh/lumera/internal/platform/apperr"
	"github.com/dovanminh/lumera/pkg/pointer"
)

// # Test Doubles

type memoryCategoryRepo struct {
	categories map[string]*catalog.Category
}

func newMemoryCategoryRepo(categories ...*catalog.Category) *memoryCategoryRepo {
	repo := &memoryCategoryRepo{categories: map[string]*catalog.Category{}}
	for _, c := range categories {
		repo.categories[c.ID] = c
	}
	return repo
}

func (r *memoryCategoryRepo) List(_ context.Context) ([]*catalog.Category, error) {
	out := make([]*catalog.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryCategoryRepo) FindByID(_ context.Context, id string) (*catalog.Category, error) {
	if c, ok := r.categories[id]; ok {
		return c, nil
	}
	return nil, apperr.NotFound("Category")
}

func (r *memoryCategoryRepo) FindBySlug(_ context.Context, slug string) (*catalog.Category, error) {
	for _, c := range r.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, apperr.NotFound("Category")
}

func (r *memoryCategoryRepo) Create(_ context.Context, c *catalog.Category) error {
	r.categories[c.ID] = c
	return nil
}

func (r *memoryCategoryRepo) Update(_ context.Context, c *catalog.Category) error {
	if _, ok := r.categories[c.ID]; !ok {
		return apperr.NotFound("Category")
	}
	r.categories[c.ID] = c
	return nil
}

func (r *memoryCategoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.categories[id]; !ok {
		return apperr.NotFound("Category")
	}
	delete(r.categories, id)
	return nil
}

type memoryProductRepo struct {
	products map[string]*catalog.Product
}

func newMemoryProductRepo(products ...*catalog.Product) *memoryProductRepo {
	repo := &memoryProductRepo{products: map[string]*catalog.Product{}}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *memoryProductRepo) List(_ context.Context, _ catalog.Filter, _, _ int) ([]*catalog.Product, int, error) {
	out := make([]*catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryProductRepo) FindByID(_ context.Context, id string) (*catalog.Product, error) {
	if p, ok := r.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, apperr.NotFound("Product")
}

func (r *memoryProductRepo) FindBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	for _, p := range r.products {
		if p.Slug == slug {
			copied := *p
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Product")
}

func (r *memoryProductRepo) Create(_ context.Context, p *catalog.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *memoryProductRepo) Update(_ context.Context, p *catalog.Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return apperr.NotFound("Product")
	}
	r.products[p.ID] = p
	return nil
}

func (r *memoryProductRepo) UpdateStatus(_ context.Context, id string, status catalog.ProductStatus) error {
	p, ok := r.products[id]
	if !ok {
		return apperr.NotFound("Product")
	}
	p.Status = status
	return nil
}

func (r *memoryProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.products[id]; !ok {
		return apperr.NotFound("Product")
	}
	delete(r.products, id)
	return nil
}

// # Fixture

const electronicsID = "0198ff3a-0000-7000-8000-00000000c001"

func newTestService(products ...*catalog.Product) (*catalog.Service, *memoryCategoryRepo, *memoryProductRepo) {
	categories := newMemoryCategoryRepo(&catalog.Category{
		ID:   electronicsID,
		Name: "Electronics",
		Slug: "electronics",
	})
	productRepo := newMemoryProductRepo(products...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return catalog.NewService(categories, productRepo, logger), categories, productRepo
}

// # Category Tests

func TestCreateCategory(t *testing.T) {
	service, repo, _ := newTestService()

	category := &catalog.Category{Name: "Smart Home & IoT"}
	require.NoError(t, service.CreateCategory(context.Background(), category))

	assert.Len(t, category.ID, 36, "uuid should be generated")
	assert.Equal(t, "smart-home-iot", category.Slug)
	assert.Contains(t, repo.categories, category.ID)
}

func TestCreateCategory_UnknownParent(t *testing.T) {
	service, _, _ := newTestService()

	category := &catalog.Category{
		Name:     "Orphan",
		ParentID: pointer.To("0198ff3a-0000-7000-8000-00000000dead"),
	}
	err := service.CreateCategory(context.Background(), category)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestUpdateCategory_SelfParentRejected(t *testing.T) {
	service, _, _ := newTestService()

	err := service.UpdateCategory(context.Background(), &catalog.Category{
		ID:       electronicsID,
		ParentID: pointer.To(electronicsID),
	})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// # Product Tests

/*
TestCreateProduct verifies identity and slug generation plus the draft
and currency defaults applied to a bare submission.
*/
func TestCreateProduct(t *testing.T) {
	service, _, repo := newTestService()

	product := &catalog.Product{
		Name:       "Walnut Desk Organizer",
		CategoryID: electronicsID,
		PriceCents: 4999,
		Stock:      25,
	}
	require.NoError(t, service.CreateProduct(context.Background(), product))

	assert.Len(t, product.ID, 36)
	assert.Equal(t, "walnut-desk-organizer", product.Slug)
	assert.Equal(t, catalog.StatusDraft, product.Status)
	assert.Equal(t, "USD", product.Currency)
	assert.Contains(t, repo.products, product.ID)
}

func TestCreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name    string
		product *catalog.Product
	}{
		{
			name:    "missing_name",
			product: &catalog.Product{CategoryID: electronicsID},
		},
		{
			name:    "missing_category",
			product: &catalog.Product{Name: "Nameless Wonder"},
		},
		{
			name:    "negative_price",
			product: &catalog.Product{Name: "Freebie", CategoryID: electronicsID, PriceCents: -1},
		},
		{
			name:    "negative_stock",
			product: &catalog.Product{Name: "Phantom", CategoryID: electronicsID, Stock: -5},
		},
		{
			name:    "bogus_status",
			product: &catalog.Product{Name: "Limbo", CategoryID: electronicsID, Status: "limbo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _, repo := newTestService()

			err := service.CreateProduct(context.Background(), tt.product)

			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
			assert.Empty(t, repo.products)
		})
	}
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	service, _, _ := newTestService()

	err := service.CreateProduct(context.Background(), &catalog.Product{
		Name:       "Stray",
		CategoryID: "0198ff3a-0000-7000-8000-00000000dead",
	})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

/*
TestUpdateProduct verifies partial-update semantics: set fields
overwrite, zero values leave the stored entity untouched.
*/
func TestUpdateProduct(t *testing.T) {
	existing := &catalog.Product{
		ID:         "0198ff3a-0000-7000-8000-00000000p001",
		Name:       "Walnut Desk Organizer",
		Slug:       "walnut-desk-organizer",
		CategoryID: electronicsID,
		PriceCents: 4999,
		Stock:      25,
		Status:     catalog.StatusPublished,
		Currency:   "USD",
	}
	service, _, repo := newTestService(existing)

	err := service.UpdateProduct(context.Background(), &catalog.Product{
		ID:         existing.ID,
		PriceCents: 5499,
	})
	require.NoError(t, err)

	stored := repo.products[existing.ID]
	assert.Equal(t, int64(5499), stored.PriceCents)
	assert.Equal(t, "Walnut Desk Organizer", stored.Name)
	assert.Equal(t, 25, stored.Stock)
	assert.Equal(t, catalog.StatusPublished, stored.Status)
}

func TestPublishAndArchive(t *testing.T) {
	existing := &catalog.Product{
		ID:         "0198ff3a-0000-7000-8000-00000000p001",
		Name:       "Walnut Desk Organizer",
		CategoryID: electronicsID,
		Status:     catalog.StatusDraft,
	}
	service, _, repo := newTestService(existing)
	ctx := context.Background()

	require.NoError(t, service.PublishProduct(ctx, existing.ID))
	assert.Equal(t, catalog.StatusPublished, repo.products[existing.ID].Status)

	require.NoError(t, service.ArchiveProduct(ctx, existing.ID))
	assert.Equal(t, catalog.StatusArchived, repo.products[existing.ID].Status)
}

func TestGetProduct_ByIDOrSlug(t *testing.T) {
	existing := &catalog.Product{
		ID:   "0198ff3a-0000-7000-8000-00000000p001",
		Name: "Walnut Desk Organizer",
		Slug: "walnut-desk-organizer",
	}
	service, _, _ := newTestService(existing)
	ctx := context.Background()

	byID, err := service.GetProduct(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, byID.ID)

	bySlug, err := service.GetProduct(ctx, "walnut-desk-organizer")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, bySlug.ID)
}

func TestPurchasable(t *testing.T) {
	tests := []struct {
		name     string
		product  catalog.Product
		quantity int
		want     bool
	}{
		{"published_in_stock", catalog.Product{Status: catalog.StatusPublished, Stock: 5}, 3, true},
		{"published_exact_stock", catalog.Product{Status: catalog.StatusPublished, Stock: 3}, 3, true},
		{"published_insufficient", catalog.Product{Status: catalog.StatusPublished, Stock: 2}, 3, false},
		{"draft_in_stock", catalog.Product{Status: catalog.StatusDraft, Stock: 10}, 1, false},
		{"archived_in_stock", catalog.Product{Status: catalog.StatusArchived, Stock: 10}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.Purchasable(tt.quantity))
		})
	}
}
