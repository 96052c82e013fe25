package cartcache

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func item(price string, quantity int32) Item {
	return Item{Price: decimal.RequireFromString(price), Quantity: quantity}
}

func TestComputeSummary(t *testing.T) {
	tests := []struct {
		name     string
		items    []Item
		expected Summary
	}{
		{
			name:  "given empty cart should charge nothing",
			items: []Item{},
			expected: Summary{
				Subtotal:     decimal.Zero,
				ShippingCost: decimal.Zero,
				Tax:          decimal.Zero,
				Total:        decimal.Zero,
			},
		},
		{
			name:  "given subtotal below threshold should charge shipping",
			items: []Item{item("34.99", 1)},
			expected: Summary{
				Subtotal:       decimal.RequireFromString("34.99"),
				ShippingCost:   decimal.RequireFromString("9.99"),
				Tax:            decimal.RequireFromString("2.80"),
				Total:          decimal.RequireFromString("47.78"),
				TotalItemCount: 1,
			},
		},
		{
			name:  "given subtotal exactly at threshold should ship free",
			items: []Item{item("25", 2)},
			expected: Summary{
				Subtotal:       decimal.RequireFromString("50"),
				ShippingCost:   decimal.Zero,
				Tax:            decimal.RequireFromString("4"),
				Total:          decimal.RequireFromString("54"),
				TotalItemCount: 2,
			},
		},
		{
			name:  "given several lines should sum quantities and prices",
			items: []Item{item("10.00", 2), item("4.99", 3)},
			expected: Summary{
				Subtotal:       decimal.RequireFromString("34.97"),
				ShippingCost:   decimal.RequireFromString("9.99"),
				Tax:            decimal.RequireFromString("2.80"),
				Total:          decimal.RequireFromString("47.76"),
				TotalItemCount: 5,
			},
		},
		{
			name:  "given zero priced items should ship free",
			items: []Item{item("0", 4)},
			expected: Summary{
				Subtotal:       decimal.Zero,
				ShippingCost:   decimal.Zero,
				Tax:            decimal.Zero,
				Total:          decimal.Zero,
				TotalItemCount: 4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := ComputeSummary(tt.items)
			assert.True(t, tt.expected.Subtotal.Equal(actual.Subtotal), "subtotal %s", actual.Subtotal)
			assert.True(t, tt.expected.ShippingCost.Equal(actual.ShippingCost), "shipping %s", actual.ShippingCost)
			assert.True(t, tt.expected.Tax.Equal(actual.Tax), "tax %s", actual.Tax)
			assert.True(t, tt.expected.Total.Equal(actual.Total), "total %s", actual.Total)
			assert.Equal(t, tt.expected.TotalItemCount, actual.TotalItemCount)

			again := ComputeSummary(tt.items)
			assert.True(t, actual.Total.Equal(again.Total), "summary should be pure")
		})
	}
}
