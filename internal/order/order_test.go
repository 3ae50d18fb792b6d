// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dovanminh/lumera/internal/order"
)

/*
TestPrice covers the checkout arithmetic: line totals, subtotal, flat
shipping, and the free-shipping threshold at its exact boundary.
*/
func TestPrice(t *testing.T) {
	tests := []struct {
		name         string
		items        []order.Item
		wantSubtotal int64
		wantShipping int64
		wantTotal    int64
	}{
		{
			name: "single_line",
			items: []order.Item{
				{UnitPriceCents: 1999, Quantity: 2},
			},
			wantSubtotal: 3998,
			wantShipping: order.FlatShippingCents,
			wantTotal:    4498,
		},
		{
			name: "multiple_lines",
			items: []order.Item{
				{UnitPriceCents: 1000, Quantity: 3},
				{UnitPriceCents: 250, Quantity: 4},
			},
			wantSubtotal: 4000,
			wantShipping: order.FlatShippingCents,
			wantTotal:    4500,
		},
		{
			name: "just_below_free_shipping",
			items: []order.Item{
				{UnitPriceCents: order.FreeShippingThreshold - 1, Quantity: 1},
			},
			wantSubtotal: order.FreeShippingThreshold - 1,
			wantShipping: order.FlatShippingCents,
			wantTotal:    order.FreeShippingThreshold - 1 + order.FlatShippingCents,
		},
		{
			name: "exactly_at_free_shipping",
			items: []order.Item{
				{UnitPriceCents: order.FreeShippingThreshold, Quantity: 1},
			},
			wantSubtotal: order.FreeShippingThreshold,
			wantShipping: 0,
			wantTotal:    order.FreeShippingThreshold,
		},
		{
			name: "above_free_shipping",
			items: []order.Item{
				{UnitPriceCents: 30000, Quantity: 5},
			},
			wantSubtotal: 150000,
			wantShipping: 0,
			wantTotal:    150000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &order.Order{Items: tt.items}
			o.Price()

			assert.Equal(t, tt.wantSubtotal, o.SubtotalCents)
			assert.Equal(t, tt.wantShipping, o.ShippingCents)
			assert.Equal(t, tt.wantTotal, o.TotalCents)
		})
	}
}

func TestPrice_FillsLineTotals(t *testing.T) {
	o := &order.Order{Items: []order.Item{
		{UnitPriceCents: 750, Quantity: 2},
		{UnitPriceCents: 120, Quantity: 10},
	}}
	o.Price()

	assert.Equal(t, int64(1500), o.Items[0].LineTotalCents)
	assert.Equal(t, int64(1200), o.Items[1].LineTotalCents)
}

/*
TestCanTransition pins the whole fulfilment state machine: the five
states against each other, with delivered and cancelled terminal.
*/
func TestCanTransition(t *testing.T) {
	allowed := map[order.Status][]order.Status{
		order.StatusPending: {order.StatusPaid, order.StatusCancelled},
		order.StatusPaid:    {order.StatusShipped, order.StatusCancelled},
		order.StatusShipped: {order.StatusDelivered},
	}
	all := []order.Status{
		order.StatusPending, order.StatusPaid, order.StatusShipped,
		order.StatusDelivered, order.StatusCancelled,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, order.CanTransition(from, to),
				"%s -> %s", from, to)
		}
	}
}

func TestStatus_Cancellable(t *testing.T) {
	assert.True(t, order.StatusPending.Cancellable())
	assert.True(t, order.StatusPaid.Cancellable())
	assert.False(t, order.StatusShipped.Cancellable())
	assert.False(t, order.StatusDelivered.Cancellable())
	assert.False(t, order.StatusCancelled.Cancellable())
}

// CancellableStatuses feeds the store's cancel guard, so it must track
// the state machine exactly.
func TestCancellableStatuses(t *testing.T) {
	assert.ElementsMatch(t,
		[]order.Status{order.StatusPending, order.StatusPaid},
		order.CancellableStatuses())
}

func TestFormatOrderNumber(t *testing.T) {
	assert.Equal(t, "LM-000042", order.FormatOrderNumber(42))
	assert.Equal(t, "LM-000001", order.FormatOrderNumber(1))
	assert.Equal(t, "LM-1234567", order.FormatOrderNumber(1234567))
}
