package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
)

// OrderPlacedEvent signals a new buyer order.
type OrderPlacedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	ArtisanIDs  []uuid.UUID     `json:"artisan_ids"`
	ItemCount   int             `json:"item_count"`
	Total       decimal.Decimal `json:"total"`
}

// OrderStatusChangedEvent is emitted when an order moves to a new status.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	BuyerID        uuid.UUID         `json:"buyer_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	Note           string            `json:"note,omitempty"`
	ChangedAt      time.Time         `json:"changed_at"`
}

// OrderPaymentStatusChangedEvent tracks the independent payment axis.
type OrderPaymentStatusChangedEvent struct {
	OrderID          uuid.UUID           `json:"order_id"`
	OrderNumber      string              `json:"order_number"`
	PreviousStatus   enums.PaymentStatus `json:"previous_status"`
	Status           enums.PaymentStatus `json:"status"`
	PaymentReference *string             `json:"payment_reference,omitempty"`
}

// ApprovalDecidedEvent reports an admin decision on a gated entity.
type ApprovalDecidedEvent struct {
	Subject         enums.ApprovalSubject `json:"subject"`
	EntityID        uuid.UUID             `json:"entity_id"`
	Decision        enums.ApprovalStatus  `json:"decision"`
	ModeratorID     uuid.UUID             `json:"moderator_id"`
	Notes           *string               `json:"notes,omitempty"`
	RejectionReason *string               `json:"rejection_reason,omitempty"`
	DecidedAt       time.Time             `json:"decided_at"`
}

// ArtisanChangesRecordedEvent is emitted when an approved artisan edits protected fields.
type ArtisanChangesRecordedEvent struct {
	ArtisanID     uuid.UUID `json:"artisan_id"`
	ChangedFields []string  `json:"changed_fields"`
	ChangedAt     time.Time `json:"changed_at"`
}

// ArtisanChangesReviewedEvent is emitted when an admin clears pending changes.
type ArtisanChangesReviewedEvent struct {
	ArtisanID     uuid.UUID `json:"artisan_id"`
	ModeratorID   uuid.UUID `json:"moderator_id"`
	ChangedFields []string  `json:"changed_fields"`
	ReviewedAt    time.Time `json:"reviewed_at"`
}

// CommentModeratedEvent is emitted for every comment moderation action.
type CommentModeratedEvent struct {
	CommentID   uuid.UUID           `json:"comment_id"`
	PostID      uuid.UUID           `json:"post_id"`
	Status      enums.CommentStatus `json:"status"`
	ModeratorID uuid.UUID           `json:"moderator_id"`
	Reason      *string             `json:"reason,omitempty"`
}

// ReviewCreatedEvent is emitted when a buyer reviews a delivered product.
type ReviewCreatedEvent struct {
	ReviewID  uuid.UUID `json:"review_id"`
	ProductID uuid.UUID `json:"product_id"`
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
}
