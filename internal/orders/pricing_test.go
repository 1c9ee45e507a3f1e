package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

func TestComputeTotalsInvariant(t *testing.T) {
	items := types.OrderItems{
		{ProductID: uuid.New(), Price: decimal.RequireFromString("249.50"), Quantity: 2},
		{ProductID: uuid.New(), Price: decimal.RequireFromString("99.99"), Quantity: 1},
	}
	totals := ComputeTotals(items, decimal.RequireFromString("50"), decimal.RequireFromString("0.18"), decimal.RequireFromString("10"))

	if !totals.Subtotal.Equal(decimal.RequireFromString("598.99")) {
		t.Fatalf("unexpected subtotal %s", totals.Subtotal)
	}
	if !totals.Tax.Equal(decimal.RequireFromString("107.82")) {
		t.Fatalf("unexpected tax %s", totals.Tax)
	}
	want := totals.Subtotal.Add(totals.ShippingCost).Add(totals.Tax).Sub(totals.Discount)
	if !totals.Total.Equal(want) {
		t.Fatalf("total %s does not match invariant %s", totals.Total, want)
	}
	if !items[0].LineTotal.Equal(decimal.RequireFromString("499")) {
		t.Fatalf("line total not filled: %s", items[0].LineTotal)
	}
}

func TestComputeTotalsClampsDiscount(t *testing.T) {
	items := types.OrderItems{{Price: decimal.RequireFromString("10"), Quantity: 1}}

	totals := ComputeTotals(items, decimal.Zero, decimal.Zero, decimal.RequireFromString("25"))
	if !totals.Discount.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("expected discount clamped to 10, got %s", totals.Discount)
	}
	if !totals.Total.IsZero() {
		t.Fatalf("expected zero total, got %s", totals.Total)
	}

	totals = ComputeTotals(items, decimal.RequireFromString("-5"), decimal.Zero, decimal.RequireFromString("-3"))
	if !totals.ShippingCost.IsZero() || !totals.Discount.IsZero() {
		t.Fatalf("negative inputs must clamp to zero: %+v", totals)
	}
}

func TestShippingFor(t *testing.T) {
	p := PricingConfig{
		FlatShipping:     decimal.RequireFromString("50"),
		FreeShippingFrom: decimal.RequireFromString("999"),
	}
	if !p.ShippingFor(decimal.RequireFromString("998.99")).Equal(decimal.RequireFromString("50")) {
		t.Fatal("expected flat fee below threshold")
	}
	if !p.ShippingFor(decimal.RequireFromString("999")).IsZero() {
		t.Fatal("expected free shipping at threshold")
	}

	p.FreeShippingFrom = decimal.Zero
	if !p.ShippingFor(decimal.RequireFromString("5000")).Equal(decimal.RequireFromString("50")) {
		t.Fatal("zero threshold must disable free shipping")
	}
}
