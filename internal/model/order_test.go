package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_Next(t *testing.T) {
	tests := []struct {
		from OrderStatus
		want OrderStatus
		ok   bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusAccepted, StatusOnProgress, true},
		{StatusOnProgress, StatusReady, true},
		{StatusReady, StatusPicked, true},
		{StatusPicked, StatusDelivered, true},
		{StatusDelivered, "", false},
		{"shipped", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got, ok := tt.from.Next()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusAccepted))
	assert.False(t, StatusPending.CanTransitionTo(StatusOnProgress))
	assert.False(t, StatusReady.CanTransitionTo(StatusAccepted))
	assert.False(t, StatusReady.CanTransitionTo(StatusReady))
	assert.False(t, StatusDelivered.CanTransitionTo(StatusPending))

	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusAccepted.Before(StatusReady))
	assert.False(t, StatusDelivered.Before(StatusPicked))
}

func TestOrder_Items(t *testing.T) {
	order := &Order{Items: []OrderItem{
		{CakeID: "a", SellerID: "s1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{CakeID: "b", SellerID: "s2", Quantity: 1, UnitPrice: decimal.RequireFromString("5.50")},
		{CakeID: "a", SellerID: "s1", Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
	}}

	assert.True(t, decimal.RequireFromString("35.50").Equal(TotalOf(order.Items)))
	assert.Equal(t, []string{"s1", "s2"}, order.SellerIDs())
	assert.Equal(t, []string{"a", "b"}, order.CakeIDs())
	assert.True(t, order.HasSeller("s2"))
	assert.False(t, order.HasSeller("s3"))
	assert.True(t, order.ContainsCake("b"))
	assert.False(t, order.ContainsCake("c"))
}

func TestCart_Accepts(t *testing.T) {
	cart := &Cart{}
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Accepts("s1"))

	cart.SellerID = "s1"
	cart.Items = []CartItem{{CakeID: "a", Quantity: 1}}
	assert.True(t, cart.Accepts("s1"))
	assert.False(t, cart.Accepts("s2"))
	assert.NotNil(t, cart.Item("a"))
	assert.Nil(t, cart.Item("b"))
}
