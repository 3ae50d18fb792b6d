// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package order

import (
	"fmt"
	"time"
)

// Status is the fulfilment lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// validTransitions encodes the fulfilment state machine. Delivered and
// cancelled are terminal.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether the customer may still cancel the order.
// Stock is returned to the shelf on cancellation, so only orders that
// have not shipped qualify.
func (s Status) Cancellable() bool {
	return CanTransition(s, StatusCancelled)
}

// CancellableStatuses returns every status from which cancellation is
// still permitted, derived from the state machine.
func CancellableStatuses() []Status {
	var statuses []Status
	for _, from := range []Status{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled} {
		if from.Cancellable() {
			statuses = append(statuses, from)
		}
	}
	return statuses
}

// Item is a single priced line within an order. Product name and unit
// price are copied at checkout time so later catalogue edits do not
// rewrite order history.
type Item struct {
	ID             string `json:"id"`
	OrderID        string `json:"-"`
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// Order is a placed purchase. Monetary amounts are minor currency units.
type Order struct {
	ID              string    `json:"id"`
	OrderNumber     string    `json:"order_number"`
	UserID          string    `json:"user_id"`
	Status          Status    `json:"status"`
	Items           []Item    `json:"items"`
	SubtotalCents   int64     `json:"subtotal_cents"`
	ShippingCents   int64     `json:"shipping_cents"`
	TotalCents      int64     `json:"total_cents"`
	Currency        string    `json:"currency"`
	ShippingAddress string    `json:"shipping_address"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Shipping pricing. Orders at or above the threshold ship free.
const (
	FlatShippingCents     int64 = 500
	FreeShippingThreshold int64 = 500_00
)

// Price fills the derived monetary fields of the order from its items.
//
// Each line total is unit price times quantity, the subtotal is the sum
// of line totals, and shipping is a flat rate waived above
// [FreeShippingThreshold]. Price is pure arithmetic so checkout totals
// stay reproducible in tests.
func (o *Order) Price() {
	var subtotal int64
	for i := range o.Items {
		o.Items[i].LineTotalCents = o.Items[i].UnitPriceCents * int64(o.Items[i].Quantity)
		subtotal += o.Items[i].LineTotalCents
	}

	o.SubtotalCents = subtotal
	o.ShippingCents = FlatShippingCents
	if subtotal >= FreeShippingThreshold {
		o.ShippingCents = 0
	}
	o.TotalCents = subtotal + o.ShippingCents
}

// FormatOrderNumber renders a sequence value as a human-facing order
// number, e.g. 42 becomes "LM-000042".
func FormatOrderNumber(sequence int64) string {
	return fmt.Sprintf("LM-%06d", sequence)
}

// Field identifiers used in validation error details.
const (
	FieldItems           = "items"
	FieldProductID       = "product_id"
	FieldQuantity        = "quantity"
	FieldShippingAddress = "shipping_address"
	FieldStatus          = "status"
)
