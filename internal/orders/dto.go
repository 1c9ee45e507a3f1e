package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

// LineSelection is one product/quantity pair submitted at checkout.
type LineSelection struct {
	ProductID uuid.UUID
	Quantity  int
}

// PlaceOrderInput is the checkout payload after request decoding.
type PlaceOrderInput struct {
	Items           []LineSelection
	ShippingAddress types.Address
	PaymentMethod   string
	Notes           *string
}

// ListFilter narrows the admin order listing.
type ListFilter struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}

// StatusStat is one row of the per-status order aggregation.
type StatusStat struct {
	Status      enums.OrderStatus `json:"status"`
	Count       int64             `json:"count"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
}

// TrackingInput carries the admin shipment details.
type TrackingInput struct {
	TrackingNumber    string
	EstimatedDelivery *time.Time
}

// OrderDTO is the order payload returned to buyers and administrators.
type OrderDTO struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        string              `json:"order_number"`
	UserID             uuid.UUID           `json:"user_id"`
	Items              types.OrderItems    `json:"items"`
	Status             enums.OrderStatus   `json:"status"`
	StatusHistory      types.StatusHistory `json:"status_history"`
	PaymentStatus      enums.PaymentStatus `json:"payment_status"`
	PaymentMethod      string              `json:"payment_method"`
	PaymentReference   *string             `json:"payment_reference,omitempty"`
	ShippingAddress    types.Address       `json:"shipping_address"`
	Totals             Totals              `json:"totals"`
	TrackingNumber     *string             `json:"tracking_number,omitempty"`
	EstimatedDelivery  *time.Time          `json:"estimated_delivery,omitempty"`
	ActualDelivery     *time.Time          `json:"actual_delivery,omitempty"`
	DeliveredAt        *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CancellationReason *string             `json:"cancellation_reason,omitempty"`
	ReturnReason       *string             `json:"return_reason,omitempty"`
	Notes              *string             `json:"notes,omitempty"`
	CanCancel          bool                `json:"can_cancel"`
	CanReturn          bool                `json:"can_return"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// NewOrderDTO maps the persisted order, evaluating buyer eligibility at now.
func NewOrderDTO(order *models.Order, now time.Time) OrderDTO {
	items := order.Items
	if items == nil {
		items = types.OrderItems{}
	}
	history := order.StatusHistory
	if history == nil {
		history = types.StatusHistory{}
	}
	return OrderDTO{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		UserID:           order.UserID,
		Items:            items,
		Status:           order.Status,
		StatusHistory:    history,
		PaymentStatus:    order.PaymentStatus,
		PaymentMethod:    order.PaymentMethod,
		PaymentReference: order.PaymentReference,
		ShippingAddress:  order.ShippingAddress,
		Totals: Totals{
			Subtotal:     order.Subtotal,
			ShippingCost: order.ShippingCost,
			Tax:          order.Tax,
			Discount:     order.Discount,
			Total:        order.Total,
		},
		TrackingNumber:     order.TrackingNumber,
		EstimatedDelivery:  order.EstimatedDelivery,
		ActualDelivery:     order.ActualDelivery,
		DeliveredAt:        order.DeliveredAt,
		CancelledAt:        order.CancelledAt,
		CancellationReason: order.CancellationReason,
		ReturnReason:       order.ReturnReason,
		Notes:              order.Notes,
		CanCancel:          CanBeCancelled(order),
		CanReturn:          CanBeReturned(order, now),
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
}

// NewOrderPage maps a page of orders.
func NewOrderPage(page pagination.Page[models.Order], now time.Time) pagination.Page[OrderDTO] {
	out := pagination.Page[OrderDTO]{Items: make([]OrderDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for i := range page.Items {
		out.Items = append(out.Items, NewOrderDTO(&page.Items[i], now))
	}
	return out
}
