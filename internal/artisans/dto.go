package artisans

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

// RegisterInput is the profile a user submits to become an artisan.
type RegisterInput struct {
	BusinessName    string
	Email           string
	Phone           string
	Bio             *string
	Craft           *string
	Location        *string
	ShippingAddress *types.Address
}

// ProfilePatch carries a partial profile update; nil fields are left alone.
type ProfilePatch struct {
	BusinessName    *string
	Email           *string
	Phone           *string
	Bio             *string
	Craft           *string
	Location        *string
	ShippingAddress *types.Address
	IsActive        *bool
}

// ArtisanDTO is the owner and admin view of a profile.
type ArtisanDTO struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"user_id"`
	BusinessName    string                `json:"business_name"`
	Slug            string                `json:"slug"`
	Email           string                `json:"email"`
	Phone           string                `json:"phone"`
	Bio             *string               `json:"bio,omitempty"`
	Craft           *string               `json:"craft,omitempty"`
	Location        *string               `json:"location,omitempty"`
	ShippingAddress *types.Address        `json:"shipping_address,omitempty"`
	IsActive        bool                  `json:"is_active"`
	ApprovalStatus  enums.ApprovalStatus  `json:"approval_status"`
	ApprovedAt      *time.Time            `json:"approved_at,omitempty"`
	ApprovalNotes   *string               `json:"approval_notes,omitempty"`
	RejectionReason *string               `json:"rejection_reason,omitempty"`
	PendingChanges  *types.PendingChanges `json:"pending_changes,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// PublicArtisanDTO omits contact and moderation details.
type PublicArtisanDTO struct {
	ID           uuid.UUID `json:"id"`
	BusinessName string    `json:"business_name"`
	Slug         string    `json:"slug"`
	Bio          *string   `json:"bio,omitempty"`
	Craft        *string   `json:"craft,omitempty"`
	Location     *string   `json:"location,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewArtisanDTO(a *models.Artisan) ArtisanDTO {
	return ArtisanDTO{
		ID:              a.ID,
		UserID:          a.UserID,
		BusinessName:    a.BusinessName,
		Slug:            a.Slug,
		Email:           a.Email,
		Phone:           a.Phone,
		Bio:             a.Bio,
		Craft:           a.Craft,
		Location:        a.Location,
		ShippingAddress: a.ShippingAddress,
		IsActive:        a.IsActive,
		ApprovalStatus:  a.ApprovalStatus,
		ApprovedAt:      a.ApprovedAt,
		ApprovalNotes:   a.ApprovalNotes,
		RejectionReason: a.RejectionReason,
		PendingChanges:  a.PendingChanges,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func NewPublicArtisanDTO(a *models.Artisan) PublicArtisanDTO {
	return PublicArtisanDTO{
		ID:           a.ID,
		BusinessName: a.BusinessName,
		Slug:         a.Slug,
		Bio:          a.Bio,
		Craft:        a.Craft,
		Location:     a.Location,
		CreatedAt:    a.CreatedAt,
	}
}

// NewPublicPage maps a page of artisans to their public view.
func NewPublicPage(page pagination.Page[models.Artisan]) pagination.Page[PublicArtisanDTO] {
	out := pagination.Page[PublicArtisanDTO]{Items: make([]PublicArtisanDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for i := range page.Items {
		out.Items = append(out.Items, NewPublicArtisanDTO(&page.Items[i]))
	}
	return out
}
