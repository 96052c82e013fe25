package cartcache

import (
	"github.com/shopspring/decimal"
)

var (
	FreeShippingThreshold = decimal.NewFromInt(50)
	ShippingCost          = decimal.RequireFromString("9.99")
	TaxRate               = decimal.RequireFromString("0.08")
)

type Summary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	TotalItemCount int64           `json:"totalItemCount"`
}

// ComputeSummary derives the order summary of items. Shipping is free for an
// empty cart and from FreeShippingThreshold upwards; tax is rounded to cents.
func ComputeSummary(items []Item) Summary {
	subtotal := decimal.Zero
	count := int64(0)
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt32(item.Quantity)))
		count += int64(item.Quantity)
	}

	shipping := ShippingCost
	if subtotal.IsZero() || subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(TaxRate).Round(2)

	return Summary{
		Subtotal:       subtotal,
		ShippingCost:   shipping,
		Tax:            tax,
		Total:          subtotal.Add(shipping).Add(tax),
		TotalItemCount: count,
	}
}
