// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

/*
Package catalog provides the HTTP interface for the storefront catalogue.

It exposes public endpoints for browsing categories and published products,
and a restricted management surface for staff holding the product management
permission.

# Routing Strategy

  - Public (v1): Discovery endpoints accessible to all visitors (GET).
  - Restricted (v1): Mutative endpoints guarded by the authorization
    evaluator (POST, PATCH, DELETE).
*/
package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/middleware"
	requestutil "github.com/dovanminh/lumera/internal/platform/request"
	"github.com/dovanminh/lumera/internal/platform/respond"
	"github.com/dovanminh/lumera/pkg/convert"
	"github.com/dovanminh/lumera/pkg/pagination"
	"github.com/dovanminh/lumera/pkg/pointer"
	"github.com/dovanminh/lumera/pkg/query"
)

// # Handler Implementation

// Handler implements the HTTP layer for catalogue discovery and management.
type Handler struct {
	service   *Service
	evaluator *authz.Evaluator
}

// NewHandler constructs a new catalog [Handler].
func NewHandler(service *Service, evaluator *authz.Evaluator) *Handler {
	return &Handler{service: service, evaluator: evaluator}
}

// CategoryRoutes returns a [chi.Router] with the category endpoints.
func (handler *Handler) CategoryRoutes() chi.Router {
	router := chi.NewRouter()

	// ## Public Discovery Endpoints
	router.Get("/", handler.listCategories)
	router.Get("/{identifier}", handler.getCategory)

	// ## Catalogue Management (Permission Protected)
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequirePermission(handler.evaluator, authz.PermProductManagement))

		admin.Post("/", handler.createCategory)
		admin.Patch("/{id}", handler.updateCategory)
		admin.Delete("/{id}", handler.deleteCategory)
	})

	return router
}

// ProductRoutes returns a [chi.Router] with the product endpoints.
func (handler *Handler) ProductRoutes() chi.Router {
	router := chi.NewRouter()

	// ## Public Discovery Endpoints
	router.Get("/", handler.listProducts)
	router.Get("/{identifier}", handler.getProduct)

	// ## Catalogue Management (Permission Protected)
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequirePermission(handler.evaluator, authz.PermProductManagement))

		admin.Get("/all", handler.listAllProducts)
		admin.Post("/", handler.createProduct)
		admin.Patch("/{id}", handler.updateProduct)
		admin.Post("/{id}/publish", handler.publishProduct)
		admin.Post("/{id}/archive", handler.archiveProduct)
		admin.Delete("/{id}", handler.deleteProduct)
	})

	return router
}

// # Category Endpoints

// GET /api/v1/categories.
func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	categories, err := handler.service.ListCategories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, categories)
}

// GET /api/v1/categories/{identifier}.
func (handler *Handler) getCategory(writer http.ResponseWriter, request *http.Request) {
	identifier := chi.URLParam(request, "identifier")

	category, err := handler.service.GetCategory(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, category)
}

type categoryPayload struct {
	ParentID  *string `json:"parent_id"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	SortOrder int     `json:"sort_order"`
}

// POST /api/v1/categories.
func (handler *Handler) createCategory(writer http.ResponseWriter, request *http.Request) {
	var payload categoryPayload
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	category := &Category{
		ParentID:  payload.ParentID,
		Name:      payload.Name,
		Slug:      payload.Slug,
		SortOrder: payload.SortOrder,
	}

	if err := handler.service.CreateCategory(request.Context(), category); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, category)
}

// PATCH /api/v1/categories/{id}.
func (handler *Handler) updateCategory(writer http.ResponseWriter, request *http.Request) {
	var payload categoryPayload
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	category := &Category{
		ID:        requestutil.ID(request, "id"),
		ParentID:  payload.ParentID,
		Name:      payload.Name,
		Slug:      payload.Slug,
		SortOrder: payload.SortOrder,
	}

	if err := handler.service.UpdateCategory(request.Context(), category); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, category)
}

// DELETE /api/v1/categories/{id}.
func (handler *Handler) deleteCategory(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteCategory(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Product Endpoints

/*
GET /api/v1/products.

Description: Retrieves a paginated list of published products.

Request:
  - q: string (Name search)
  - category: string (Category UUID)
  - min_price: int (Minor currency units)
  - max_price: int (Minor currency units)
  - sort: string (latest, name, price)
  - dir: string (asc, desc)
  - limit: int
  - page: int

Response:
  - 200: []Product: Paginated list of products
*/
func (handler *Handler) listProducts(writer http.ResponseWriter, request *http.Request) {
	filter := filterFromQuery(request)
	filter.Statuses = []ProductStatus{StatusPublished}

	handler.renderProductList(writer, request, filter)
}

// GET /api/v1/products/all.
//
// Admin variant of the listing: every lifecycle state is visible and an
// explicit comma-separated "status" parameter narrows the result.
func (handler *Handler) listAllProducts(writer http.ResponseWriter, request *http.Request) {
	filter := filterFromQuery(request)
	for _, s := range query.StringSlice(request.URL.Query().Get("status")) {
		filter.Statuses = append(filter.Statuses, ProductStatus(s))
	}

	handler.renderProductList(writer, request, filter)
}

func (handler *Handler) renderProductList(writer http.ResponseWriter, request *http.Request, filter Filter) {
	paginationParams := pagination.FromRequest(request)

	products, total, err := handler.service.ListProducts(request.Context(), filter,
		paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, products,
		pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func filterFromQuery(request *http.Request) Filter {
	queryParams := request.URL.Query()

	filter := Filter{
		Query:      queryParams.Get("q"),
		CategoryID: queryParams.Get("category"),
		Sort:       queryParams.Get("sort"),
		SortDir:    queryParams.Get("dir"),
	}

	if raw := queryParams.Get("min_price"); raw != "" {
		filter.MinPrice = pointer.To(int64(convert.ToInt(raw)))
	}
	if raw := queryParams.Get("max_price"); raw != "" {
		filter.MaxPrice = pointer.To(int64(convert.ToInt(raw)))
	}

	return filter
}

// GET /api/v1/products/{identifier}.
func (handler *Handler) getProduct(writer http.ResponseWriter, request *http.Request) {
	identifier := chi.URLParam(request, "identifier")

	product, err := handler.service.GetProduct(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, product)
}

type productPayload struct {
	CategoryID  string   `json:"category_id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description *string  `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Currency    string   `json:"currency"`
	Stock       int      `json:"stock"`
	Status      string   `json:"status"`
	ImageURLs   []string `json:"image_urls"`
}

func (payload *productPayload) toEntity() *Product {
	return &Product{
		CategoryID:  payload.CategoryID,
		Name:        payload.Name,
		Slug:        payload.Slug,
		Description: payload.Description,
		PriceCents:  payload.PriceCents,
		Currency:    payload.Currency,
		Stock:       payload.Stock,
		Status:      ProductStatus(payload.Status),
		ImageURLs:   payload.ImageURLs,
	}
}

// POST /api/v1/products.
func (handler *Handler) createProduct(writer http.ResponseWriter, request *http.Request) {
	var payload productPayload
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	product := payload.toEntity()
	if err := handler.service.CreateProduct(request.Context(), product); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, product)
}

// PATCH /api/v1/products/{id}.
func (handler *Handler) updateProduct(writer http.ResponseWriter, request *http.Request) {
	var payload productPayload
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	product := payload.toEntity()
	product.ID = requestutil.ID(request, "id")

	if err := handler.service.UpdateProduct(request.Context(), product); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, product)
}

// POST /api/v1/products/{id}/publish.
func (handler *Handler) publishProduct(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.PublishProduct(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// POST /api/v1/products/{id}/archive.
func (handler *Handler) archiveProduct(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.ArchiveProduct(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// DELETE /api/v1/products/{id}.
func (handler *Handler) deleteProduct(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteProduct(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
