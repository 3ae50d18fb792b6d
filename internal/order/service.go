// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package order

import (
	"context"
	"log/slog"

	"github.com/dovanminh/lumera/internal/audit"
	"github.com/dovanminh/lumera/internal/platform/apperr"
	"github.com/dovanminh/lumera/internal/platform/validate"
)

// # Service Layer

// Service orchestrates the business logic for checkout and fulfilment.
type Service struct {
	repo     Repository
	recorder audit.Recorder
	logger   *slog.Logger
}

// NewService constructs a new [Service].
func NewService(repo Repository, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
		logger:   logger,
	}
}

// Line is a requested order line as submitted at checkout.
type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

/*
Place runs checkout for a customer's cart.

Description: Validates the cart shape, then delegates the transactional
stock check, price capture, and persistence to the repository. The
returned order carries its assigned order number and priced items.

Parameters:
  - ctx: context.Context
  - userID: string (The purchasing account)
  - lines: []Line (Requested products and quantities)
  - shippingAddress: string

Returns:
  - *Order: The placed order in [StatusPending]
  - error: Validation, availability, or persistence errors
*/
func (service *Service) Place(ctx context.Context, userID string, lines []Line, shippingAddress string) (*Order, error) {

	// Cart shape validation
	validator := &validate.Validator{}
	validator.Required(FieldShippingAddress, shippingAddress).MaxLen(FieldShippingAddress, shippingAddress, 1000)
	validator.Custom(FieldItems, len(lines) == 0, "Order must contain at least one item")
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		validator.Required(FieldProductID, line.ProductID)
		validator.Custom(FieldQuantity, line.Quantity < 1, "Quantity must be at least 1")
		validator.Custom(FieldProductID, seen[line.ProductID], "Duplicate product in cart")
		seen[line.ProductID] = true
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	o := &Order{
		UserID:          userID,
		ShippingAddress: shippingAddress,
		Items:           make([]Item, len(lines)),
	}
	for i, line := range lines {
		o.Items[i] = Item{ProductID: line.ProductID, Quantity: line.Quantity}
	}

	if err := service.repo.Place(ctx, o); err != nil {
		return nil, err
	}

	service.logger.Info("order_placed",
		slog.String("order_id", o.ID),
		slog.String("order_number", o.OrderNumber),
		slog.String("user_id", userID),
		slog.Int64("total_cents", o.TotalCents),
	)

	return o, nil
}

// # Customer Operations

// ListForUser returns the customer's own orders, newest first.
func (service *Service) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*Order, int, error) {
	return service.repo.List(ctx, Filter{UserID: userID}, limit, offset)
}

// GetForUser returns one of the customer's own orders.
//
// Orders belonging to someone else are reported as not found rather
// than forbidden, so order IDs cannot be probed.
func (service *Service) GetForUser(ctx context.Context, userID, orderID string) (*Order, error) {
	o, err := service.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.NotFound("Order")
	}
	return o, nil
}

// CancelForUser cancels one of the customer's own orders and restores
// its stock. Only orders that have not shipped can be cancelled.
func (service *Service) CancelForUser(ctx context.Context, userID, orderID string) (*Order, error) {
	o, err := service.GetForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.Cancellable() {
		return nil, apperr.Unprocessable("Order can no longer be cancelled")
	}

	if err := service.repo.Cancel(ctx, orderID); err != nil {
		return nil, err
	}

	service.logger.Info("order_cancelled",
		slog.String("order_id", orderID),
		slog.String("user_id", userID),
	)

	o.Status = StatusCancelled
	return o, nil
}

// # Fulfilment Operations

// ListAll returns orders across all customers for the management surface.
func (service *Service) ListAll(ctx context.Context, f Filter, limit, offset int) ([]*Order, int, error) {
	return service.repo.List(ctx, f, limit, offset)
}

// Get returns any order by ID for the management surface.
func (service *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return service.repo.FindByID(ctx, orderID)
}

// Transition moves an order along the fulfilment state machine on behalf
// of the given staff actor.
//
// Cancellation through this path also restocks the order's items.
func (service *Service) Transition(ctx context.Context, actorID, orderID string, to Status) (*Order, error) {
	o, err := service.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(o.Status, to) {
		return nil, apperr.Unprocessable("Order cannot move from " + string(o.Status) + " to " + string(to))
	}

	if to == StatusCancelled {
		err = service.repo.Cancel(ctx, orderID)
	} else {
		err = service.repo.UpdateStatus(ctx, orderID, to)
	}
	if err != nil {
		return nil, err
	}

	service.recorder.Record(ctx, audit.Event{
		ActorID:    actorID,
		Action:     audit.ActionOrderTransition,
		EntityType: "order",
		EntityID:   orderID,
		Detail:     string(o.Status) + " -> " + string(to),
	})
	service.logger.Info("order_status_changed",
		slog.String("order_id", orderID),
		slog.String("from", string(o.Status)),
		slog.String("to", string(to)),
	)

	o.Status = to
	return o, nil
}
