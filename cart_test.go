package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart(t *testing.T) {
	cart := NewCart()
	assert.True(t, cart.Empty())

	first := cart.AddLineItem(LineItemInput{ProjectName: "a", Format: "11x15 cm", Price: 0.80})
	second := cart.AddLineItem(LineItemInput{ProjectName: "b", Format: "custom", Price: 1.50})
	require.NotEqual(t, first, second)

	items := cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Quantity)
	assert.InDelta(t, 2.30, cart.TotalPrice(), 1e-9)

	require.True(t, cart.SetQuantity(first, 3))
	assert.Equal(t, 4, cart.TotalItems())
	assert.InDelta(t, 3.90, cart.TotalPrice(), 1e-9)

	require.True(t, cart.SetQuantity(second, 0))
	assert.Len(t, cart.Items(), 1)
	assert.False(t, cart.RemoveLineItem(second))
	assert.False(t, cart.SetQuantity("missing", 2))

	cart.Clear()
	assert.True(t, cart.Empty())
}
