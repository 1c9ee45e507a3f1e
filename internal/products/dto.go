package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
)

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Description *string
	Category    string
	Price       decimal.Decimal
	Stock       int
	Image       *string
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
	Image       *string
	IsActive    *bool
}

// ListFilter narrows the public catalog.
type ListFilter struct {
	Category  *string
	ArtisanID *uuid.UUID
}

// ProductDTO represents the product payload returned to its artisan and admins.
type ProductDTO struct {
	ID              uuid.UUID            `json:"id"`
	ArtisanID       uuid.UUID            `json:"artisan_id"`
	Name            string               `json:"name"`
	Slug            string               `json:"slug"`
	Description     *string              `json:"description,omitempty"`
	Category        string               `json:"category"`
	Price           decimal.Decimal      `json:"price"`
	Stock           int                  `json:"stock"`
	Image           *string              `json:"image,omitempty"`
	IsActive        bool                 `json:"is_active"`
	ApprovalStatus  enums.ApprovalStatus `json:"approval_status"`
	ApprovalNotes   *string              `json:"approval_notes,omitempty"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// PublicProductDTO is the catalog view.
type PublicProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	ArtisanID   uuid.UUID       `json:"artisan_id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description *string         `json:"description,omitempty"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	InStock     bool            `json:"in_stock"`
	Stock       int             `json:"stock"`
	Image       *string         `json:"image,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewProductDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:              p.ID,
		ArtisanID:       p.ArtisanID,
		Name:            p.Name,
		Slug:            p.Slug,
		Description:     p.Description,
		Category:        p.Category,
		Price:           p.Price,
		Stock:           p.Stock,
		Image:           p.Image,
		IsActive:        p.IsActive,
		ApprovalStatus:  p.ApprovalStatus,
		ApprovalNotes:   p.ApprovalNotes,
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func NewPublicProductDTO(p *models.Product) PublicProductDTO {
	return PublicProductDTO{
		ID:          p.ID,
		ArtisanID:   p.ArtisanID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		InStock:     p.Stock > 0,
		Stock:       p.Stock,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
	}
}

// NewPublicPage maps a page of products to the catalog view.
func NewPublicPage(page pagination.Page[models.Product]) pagination.Page[PublicProductDTO] {
	out := pagination.Page[PublicProductDTO]{Items: make([]PublicProductDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for i := range page.Items {
		out.Items = append(out.Items, NewPublicProductDTO(&page.Items[i]))
	}
	return out
}

// NewProductPage maps a page of products to the owner view.
func NewProductPage(page pagination.Page[models.Product]) pagination.Page[ProductDTO] {
	out := pagination.Page[ProductDTO]{Items: make([]ProductDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for i := range page.Items {
		out.Items = append(out.Items, NewProductDTO(&page.Items[i]))
	}
	return out
}
