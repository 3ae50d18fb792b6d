// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package order_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dovanminh/lumera/internal/audit"
	"github.com/dovanminh/lumera/internal/order"
	"github.com/dovanminh/lumera/internal/platform/apperr"
)

// # Test Doubles

// memoryOrderRepo is an in-memory [order.Repository] that mimics the
// transactional store's observable behavior without Postgres.
type memoryOrderRepo struct {
	orders   map[string]*order.Order
	sequence int64
	placeErr error
	restocks []string
}

func newMemoryOrderRepo(orders ...*order.Order) *memoryOrderRepo {
	repo := &memoryOrderRepo{orders: map[string]*order.Order{}}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (r *memoryOrderRepo) Place(_ context.Context, o *order.Order) error {
	if r.placeErr != nil {
		return r.placeErr
	}
	r.sequence++
	o.ID = order.FormatOrderNumber(r.sequence) // stand-in id, uniqueness is all that matters here
	o.OrderNumber = order.FormatOrderNumber(r.sequence)
	o.Status = order.StatusPending
	for i := range o.Items {
		o.Items[i].ProductName = "Product " + o.Items[i].ProductID
		o.Items[i].UnitPriceCents = 1000
	}
	o.Price()
	r.orders[o.ID] = o
	return nil
}

func (r *memoryOrderRepo) List(_ context.Context, f order.Filter, limit, offset int) ([]*order.Order, int, error) {
	var matched []*order.Order
	for _, o := range r.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		matched = append(matched, o)
	}
	return matched, len(matched), nil
}

func (r *memoryOrderRepo) FindByID(_ context.Context, id string) (*order.Order, error) {
	if o, ok := r.orders[id]; ok {
		return o, nil
	}
	return nil, apperr.NotFound("Order")
}

func (r *memoryOrderRepo) UpdateStatus(_ context.Context, id string, status order.Status) error {
	o, ok := r.orders[id]
	if !ok {
		return apperr.NotFound("Order")
	}
	o.Status = status
	return nil
}

func (r *memoryOrderRepo) Cancel(_ context.Context, id string) error {
	o, ok := r.orders[id]
	if !ok {
		return apperr.NotFound("Order")
	}
	// Mirrors the store's status guard; restock must never run twice.
	if !o.Status.Cancellable() {
		return apperr.Conflict("Order can no longer be cancelled")
	}
	o.Status = order.StatusCancelled
	r.restocks = append(r.restocks, id)
	return nil
}

type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Record(_ context.Context, event audit.Event) {
	r.events = append(r.events, event)
}

func newTestService(repo order.Repository) (*order.Service, *recordingAudit) {
	recorder := &recordingAudit{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return order.NewService(repo, recorder, logger), recorder
}

// # Checkout

func TestPlace(t *testing.T) {
	repo := newMemoryOrderRepo()
	service, _ := newTestService(repo)

	placed, err := service.Place(context.Background(), "user-1",
		[]order.Line{
			{ProductID: "prod-a", Quantity: 2},
			{ProductID: "prod-b", Quantity: 1},
		}, "221B Baker Street")
	require.NoError(t, err)

	assert.Equal(t, order.StatusPending, placed.Status)
	assert.Equal(t, "LM-000001", placed.OrderNumber)
	assert.Equal(t, "user-1", placed.UserID)
	require.Len(t, placed.Items, 2)
	assert.Equal(t, int64(3000), placed.SubtotalCents)
	assert.Equal(t, int64(3000)+order.FlatShippingCents, placed.TotalCents)
}

func TestPlace_Validation(t *testing.T) {
	tests := []struct {
		name    string
		lines   []order.Line
		address string
	}{
		{
			name:    "empty_cart",
			lines:   nil,
			address: "somewhere",
		},
		{
			name:    "missing_address",
			lines:   []order.Line{{ProductID: "prod-a", Quantity: 1}},
			address: "",
		},
		{
			name:    "zero_quantity",
			lines:   []order.Line{{ProductID: "prod-a", Quantity: 0}},
			address: "somewhere",
		},
		{
			name:    "negative_quantity",
			lines:   []order.Line{{ProductID: "prod-a", Quantity: -3}},
			address: "somewhere",
		},
		{
			name:    "blank_product_id",
			lines:   []order.Line{{ProductID: "", Quantity: 1}},
			address: "somewhere",
		},
		{
			name: "duplicate_product",
			lines: []order.Line{
				{ProductID: "prod-a", Quantity: 1},
				{ProductID: "prod-a", Quantity: 2},
			},
			address: "somewhere",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryOrderRepo()
			service, _ := newTestService(repo)

			placed, err := service.Place(context.Background(), "user-1", tt.lines, tt.address)

			assert.Nil(t, placed)
			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
			assert.Empty(t, repo.orders, "nothing should be persisted")
		})
	}
}

// # Customer Operations

func TestGetForUser_ForeignOrderHidden(t *testing.T) {
	repo := newMemoryOrderRepo(&order.Order{ID: "ord-1", UserID: "owner", Status: order.StatusPending})
	service, _ := newTestService(repo)

	o, err := service.GetForUser(context.Background(), "intruder", "ord-1")

	assert.Nil(t, o)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestCancelForUser(t *testing.T) {
	t.Run("pending_order_cancels_and_restocks", func(t *testing.T) {
		repo := newMemoryOrderRepo(&order.Order{ID: "ord-1", UserID: "user-1", Status: order.StatusPending})
		service, _ := newTestService(repo)

		o, err := service.CancelForUser(context.Background(), "user-1", "ord-1")
		require.NoError(t, err)

		assert.Equal(t, order.StatusCancelled, o.Status)
		assert.Equal(t, []string{"ord-1"}, repo.restocks)
	})

	t.Run("shipped_order_rejected", func(t *testing.T) {
		repo := newMemoryOrderRepo(&order.Order{ID: "ord-1", UserID: "user-1", Status: order.StatusShipped})
		service, _ := newTestService(repo)

		o, err := service.CancelForUser(context.Background(), "user-1", "ord-1")

		assert.Nil(t, o)
		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "UNPROCESSABLE", appErr.Code)
		assert.Empty(t, repo.restocks)
	})

	t.Run("foreign_order_hidden", func(t *testing.T) {
		repo := newMemoryOrderRepo(&order.Order{ID: "ord-1", UserID: "owner", Status: order.StatusPending})
		service, _ := newTestService(repo)

		_, err := service.CancelForUser(context.Background(), "intruder", "ord-1")

		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})
}

/*
TestCancel_RepositoryStatusGuard pins the [order.Repository.Cancel]
contract the service's Cancellable pre-check relies on: the pre-check can
go stale under concurrent requests, so the repository itself must refuse
once the order has left a cancellable status. Two racing cancels restock
exactly once, and a cancel landing after shipment cannot flip the order
back.
*/
func TestCancel_RepositoryStatusGuard(t *testing.T) {
	t.Run("double_cancel_restocks_once", func(t *testing.T) {
		repo := newMemoryOrderRepo(&order.Order{ID: "ord-1", UserID: "user-1", Status: order.StatusPaid})

		require.NoError(t, repo.Cancel(context.Background(), "ord-1"))

		err := repo.Cancel(context.Background(), "ord-1")
		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "CONFLICT", appErr.Code)
		assert.Equal(t, []string{"ord-1"}, repo.restocks)
	})

	t.Run("cancel_after_shipment_refused", func(t *testing.T) {
		repo := newMemoryOrderRepo(&order.Order{ID: "ord-1", UserID: "user-1", Status: order.StatusShipped})

		err := repo.Cancel(context.Background(), "ord-1")
		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "CONFLICT", appErr.Code)
		assert.Equal(t, order.StatusShipped, repo.orders["ord-1"].Status)
		assert.Empty(t, repo.restocks)
	})
}

// # Fulfilment Operations

func TestTransition(t *testing.T) {
	t.Run("valid_step_updates_and_audits", func(t *testing.T) {
		repo := newMemoryOrderRepo(&order.Order{ID: "ord-1", UserID: "user-1", Status: order.StatusPending})
		service, recorder := newTestService(repo)

		o, err := service.Transition(context.Background(), "staff-1", "ord-1", order.StatusPaid)
		require.NoError(t, err)

		assert.Equal(t, order.StatusPaid, o.Status)
		assert.Empty(t, repo.restocks)

		require.Len(t, recorder.events, 1)
		assert.Equal(t, audit.ActionOrderTransition, recorder.events[0].Action)
		assert.Equal(t, "staff-1", recorder.events[0].ActorID)
		assert.Equal(t, "ord-1", recorder.events[0].EntityID)
	})

	t.Run("invalid_step_rejected", func(t *testing.T) {
		repo := newMemoryOrderRepo(&order.Order{ID: "ord-1", UserID: "user-1", Status: order.StatusPending})
		service, recorder := newTestService(repo)

		o, err := service.Transition(context.Background(), "staff-1", "ord-1", order.StatusDelivered)

		assert.Nil(t, o)
		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "UNPROCESSABLE", appErr.Code)
		assert.Empty(t, recorder.events)
	})

	t.Run("cancellation_restocks", func(t *testing.T) {
		repo := newMemoryOrderRepo(&order.Order{ID: "ord-1", UserID: "user-1", Status: order.StatusPaid})
		service, _ := newTestService(repo)

		o, err := service.Transition(context.Background(), "staff-1", "ord-1", order.StatusCancelled)
		require.NoError(t, err)

		assert.Equal(t, order.StatusCancelled, o.Status)
		assert.Equal(t, []string{"ord-1"}, repo.restocks)
	})
}
