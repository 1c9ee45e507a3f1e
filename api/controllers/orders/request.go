package orders

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/api/middleware"
	internalorders "github.com/angelmondragon/zm-marketplace-backend/internal/orders"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

type checkoutItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

type checkoutRequest struct {
	Items           []checkoutItem `json:"items" validate:"required,min=1,dive"`
	ShippingAddress types.Address  `json:"shipping_address"`
	PaymentMethod   string         `json:"payment_method" validate:"required"`
	Notes           *string        `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (c checkoutRequest) toInput() internalorders.PlaceOrderInput {
	items := make([]internalorders.LineSelection, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, internalorders.LineSelection{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return internalorders.PlaceOrderInput{
		Items:           items,
		ShippingAddress: c.ShippingAddress,
		PaymentMethod:   c.PaymentMethod,
		Notes:           c.Notes,
	}
}

type cancelRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type returnRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type statusRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type paymentStatusRequest struct {
	PaymentStatus    string  `json:"payment_status" validate:"required"`
	PaymentReference *string `json:"payment_reference,omitempty" validate:"omitempty,max=255"`
}

type trackingRequest struct {
	TrackingNumber    string  `json:"tracking_number" validate:"required,max=120"`
	EstimatedDelivery *string `json:"estimated_delivery,omitempty"`
}

func actorID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id missing")
	}
	return id, nil
}

func parseListFilter(r *http.Request) (internalorders.ListFilter, error) {
	var filter internalorders.ListFilter
	fields := map[string]string{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			fields["status"] = "is not a known order status"
		} else {
			filter.Status = &status
		}
	}
	if raw := r.URL.Query().Get("payment_status"); raw != "" {
		status, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			fields["payment_status"] = "is not a known payment status"
		} else {
			filter.PaymentStatus = &status
		}
	}
	if len(fields) > 0 {
		return internalorders.ListFilter{}, pkgerrors.NewValidation(fields)
	}
	return filter, nil
}
