package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/visibility"
)

// validatePlaceOrder collects every offending field and folds repeated
// products into one selection.
func (s *service) validatePlaceOrder(input PlaceOrderInput) ([]LineSelection, error) {
	fields := map[string]string{}
	if len(input.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	if s.maxItems > 0 && len(input.Items) > s.maxItems {
		fields["items"] = fmt.Sprintf("at most %d items per order", s.maxItems)
	}

	merged := make(map[uuid.UUID]int, len(input.Items))
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			fields[fmt.Sprintf("items[%d].product_id", i)] = "product id is required"
		}
		if item.Quantity < 1 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "quantity must be at least 1"
		}
		if item.ProductID != uuid.Nil && item.Quantity > 0 {
			merged[item.ProductID] += item.Quantity
		}
	}

	for _, name := range input.ShippingAddress.MissingFields() {
		fields["shipping_address."+name] = "is required"
	}
	if strings.TrimSpace(input.PaymentMethod) == "" {
		fields["payment_method"] = "payment method is required"
	}

	if len(fields) > 0 {
		return nil, pkgerrors.NewValidation(fields)
	}
	return sortedSelections(merged), nil
}

// snapshotItems locks each product, checks it is publicly purchasable and in
// stock, takes the stock and copies the line snapshot.
func (s *service) snapshotItems(ctx context.Context, repo Repository, selections []LineSelection) (types.OrderItems, error) {
	items := make(types.OrderItems, 0, len(selections))
	for _, sel := range selections {
		product, err := repo.FindProductForUpdate(ctx, sel.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		artisan, err := repo.FindArtisan(ctx, product.ArtisanID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artisan")
		}
		if err := visibility.EnsureProductVisible(product, artisan); err != nil {
			return nil, err
		}
		if sel.Quantity > product.Stock {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("only %d of %s left in stock", product.Stock, product.Name)).
				WithDetails(map[string]any{"product_id": product.ID, "available": product.Stock})
		}
		ok, err := repo.DecrementStock(ctx, product.ID, sel.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s is out of stock", product.Name))
		}

		items = append(items, types.OrderItem{
			ProductID:   product.ID,
			ArtisanID:   artisan.ID,
			ArtisanName: artisan.BusinessName,
			Name:        product.Name,
			Image:       product.Image,
			Price:       product.Price.Round(2),
			Quantity:    sel.Quantity,
		})
	}
	return items, nil
}

func subtotalOf(items types.OrderItems) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2))
	}
	return total
}

func artisanIDs(items types.OrderItems) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ArtisanID]; ok {
			continue
		}
		seen[item.ArtisanID] = struct{}{}
		ids = append(ids, item.ArtisanID)
	}
	return ids
}

func sortedSelections(selections map[uuid.UUID]int) []LineSelection {
	out := make([]LineSelection, 0, len(selections))
	for id, qty := range selections {
		out = append(out, LineSelection{ProductID: id, Quantity: qty})
	}
	// Stable lock order across concurrent checkouts.
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}
