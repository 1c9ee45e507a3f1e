package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

// Totals are the money columns of an order.
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Tax          decimal.Decimal `json:"tax"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
}

// PricingConfig carries the checkout pricing knobs.
type PricingConfig struct {
	TaxRate          decimal.Decimal
	FlatShipping     decimal.Decimal
	FreeShippingFrom decimal.Decimal
}

// ShippingFor returns the flat fee unless the subtotal reaches the free-shipping
// threshold. A zero threshold disables free shipping.
func (p PricingConfig) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if p.FreeShippingFrom.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeShippingFrom) {
		return decimal.Zero
	}
	return p.FlatShipping.Round(2)
}

// ComputeTotals prices a set of line snapshots. Line totals are filled in on
// items, tax is rounded to two places and the discount is clamped so the
// total never goes negative.
func ComputeTotals(items types.OrderItems, shippingCost, taxRate, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for i := range items {
		line := items[i].Price.Mul(decimal.NewFromInt(int64(items[i].Quantity))).Round(2)
		items[i].LineTotal = line
		subtotal = subtotal.Add(line)
	}

	if shippingCost.IsNegative() {
		shippingCost = decimal.Zero
	}
	if taxRate.IsNegative() {
		taxRate = decimal.Zero
	}
	shippingCost = shippingCost.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)

	gross := subtotal.Add(shippingCost).Add(tax)
	discount = discount.Round(2)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(gross) {
		discount = gross
	}

	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shippingCost,
		Tax:          tax,
		Discount:     discount,
		Total:        gross.Sub(discount),
	}
}
