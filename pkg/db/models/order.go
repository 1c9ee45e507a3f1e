package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

// Order is a buyer purchase with its embedded line snapshots and status log.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber        string              `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	UserID             uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Items              types.OrderItems    `gorm:"column:items;type:jsonb;not null"`
	Status             enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'placed'"`
	StatusHistory      types.StatusHistory `gorm:"column:status_history;type:jsonb;not null"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod      string              `gorm:"column:payment_method;not null"`
	PaymentReference   *string             `gorm:"column:payment_reference"`
	ShippingAddress    types.Address       `gorm:"column:shipping_address;type:jsonb;not null"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingCost       decimal.Decimal     `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	Tax                decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null"`
	Discount           decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null"`
	Total              decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	TrackingNumber     *string             `gorm:"column:tracking_number"`
	EstimatedDelivery  *time.Time          `gorm:"column:estimated_delivery"`
	ActualDelivery     *time.Time          `gorm:"column:actual_delivery"`
	DeliveredAt        *time.Time          `gorm:"column:delivered_at"`
	CancelledAt        *time.Time          `gorm:"column:cancelled_at"`
	CancellationReason *string             `gorm:"column:cancellation_reason"`
	ReturnReason       *string             `gorm:"column:return_reason"`
	Notes              *string             `gorm:"column:notes"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderCounter allocates per-year order number sequences.
type OrderCounter struct {
	Year      int       `gorm:"column:year;primaryKey;autoIncrement:false"`
	Seq       int64     `gorm:"column:seq;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
