package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

// Artisan is the seller profile tied to a user account.
type Artisan struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	BusinessName    string                `gorm:"column:business_name;not null"`
	Slug            string                `gorm:"column:slug;not null;uniqueIndex"`
	Email           string                `gorm:"column:email;not null"`
	Phone           string                `gorm:"column:phone;not null"`
	Bio             *string               `gorm:"column:bio"`
	Craft           *string               `gorm:"column:craft"`
	Location        *string               `gorm:"column:location"`
	ShippingAddress *types.Address        `gorm:"column:shipping_address;type:jsonb"`
	IsActive        bool                  `gorm:"column:is_active;not null;default:true"`
	PendingChanges  *types.PendingChanges `gorm:"column:pending_changes;type:jsonb"`
	Approval        `gorm:"embedded"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
