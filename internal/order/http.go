// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

/*
Package order provides the HTTP interface for checkout and fulfilment.

# Routing Strategy

  - Customer (v1): Authenticated endpoints scoped to the caller's own
    orders (place, list, get, cancel).
  - Fulfilment (v1): Management endpoints guarded by the order
    management permission (list all, inspect, transition).
*/
package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/middleware"
	requestutil "github.com/dovanminh/lumera/internal/platform/request"
	"github.com/dovanminh/lumera/internal/platform/respond"
	"github.com/dovanminh/lumera/pkg/pagination"
	"github.com/dovanminh/lumera/pkg/query"
)

// # Handler Implementation

// Handler implements the HTTP layer for orders.
type Handler struct {
	service   *Service
	evaluator *authz.Evaluator
}

// NewHandler constructs a new order [Handler].
func NewHandler(service *Service, evaluator *authz.Evaluator) *Handler {
	return &Handler{service: service, evaluator: evaluator}
}

// Routes returns a [chi.Router] with the customer-facing order endpoints.
// All of them require an authenticated session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth(handler.evaluator))

	router.Post("/", handler.placeOrder)
	router.Get("/", handler.listMyOrders)
	router.Get("/{id}", handler.getMyOrder)
	router.Post("/{id}/cancel", handler.cancelMyOrder)

	return router
}

// FulfilmentRoutes returns a [chi.Router] with the management endpoints.
func (handler *Handler) FulfilmentRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequirePermission(handler.evaluator, authz.PermOrderManagement))

	router.Get("/", handler.listOrders)
	router.Get("/{id}", handler.getOrder)
	router.Post("/{id}/status", handler.transitionOrder)

	return router
}

// # Customer Endpoints

type placeOrderPayload struct {
	Items           []Line `json:"items"`
	ShippingAddress string `json:"shipping_address"`
}

/*
POST /api/v1/orders.

Description: Places an order for the authenticated customer. Stock is
reserved atomically; the response carries the priced order with its
assigned order number.

Response:
  - 201: Order
  - 409: A requested product is unavailable in the requested quantity
*/
func (handler *Handler) placeOrder(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload placeOrderPayload
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	placed, err := handler.service.Place(request.Context(), userID, payload.Items, payload.ShippingAddress)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, placed)
}

// GET /api/v1/orders.
func (handler *Handler) listMyOrders(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)
	orders, total, err := handler.service.ListForUser(request.Context(), userID,
		paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, orders,
		pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

// GET /api/v1/orders/{id}.
func (handler *Handler) getMyOrder(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	o, err := handler.service.GetForUser(request.Context(), userID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, o)
}

// POST /api/v1/orders/{id}/cancel.
func (handler *Handler) cancelMyOrder(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	o, err := handler.service.CancelForUser(request.Context(), userID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, o)
}

// # Fulfilment Endpoints

/*
GET /api/v1/fulfilment/orders.

Request:
  - user: string (Filter by customer UUID)
  - status: string (Comma-separated statuses)
  - limit: int
  - page: int

Response:
  - 200: []Order: Paginated list across all customers
*/
func (handler *Handler) listOrders(writer http.ResponseWriter, request *http.Request) {
	queryParams := request.URL.Query()

	filter := Filter{UserID: queryParams.Get("user")}
	for _, s := range query.StringSlice(queryParams.Get("status")) {
		filter.Statuses = append(filter.Statuses, Status(s))
	}

	paginationParams := pagination.FromRequest(request)
	orders, total, err := handler.service.ListAll(request.Context(), filter,
		paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, orders,
		pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

// GET /api/v1/fulfilment/orders/{id}.
func (handler *Handler) getOrder(writer http.ResponseWriter, request *http.Request) {
	o, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, o)
}

type transitionPayload struct {
	Status string `json:"status"`
}

// POST /api/v1/fulfilment/orders/{id}/status.
func (handler *Handler) transitionOrder(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload transitionPayload
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	o, err := handler.service.Transition(request.Context(), actorID, requestutil.ID(request, "id"), Status(payload.Status))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, o)
}
