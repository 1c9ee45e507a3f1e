package reviews

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
)

// CreateInput is a buyer review of one product from one order.
type CreateInput struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Rating    int
	Title     *string
	Comment   *string
}

// Summary aggregates the ratings of a product.
type Summary struct {
	Count   int64           `json:"count"`
	Average decimal.Decimal `json:"average"`
}

type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Rating    int       `json:"rating"`
	Title     *string   `json:"title,omitempty"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductReviewsDTO is a page of reviews with the product's rating summary.
type ProductReviewsDTO struct {
	Summary Summary                    `json:"summary"`
	Reviews pagination.Page[ReviewDTO] `json:"reviews"`
}

func NewReviewDTO(r *models.Review) ReviewDTO {
	return ReviewDTO{
		ID:        r.ID,
		OrderID:   r.OrderID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Title:     r.Title,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func NewReviewPage(page pagination.Page[models.Review]) pagination.Page[ReviewDTO] {
	out := pagination.Page[ReviewDTO]{Items: make([]ReviewDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for i := range page.Items {
		out.Items = append(out.Items, NewReviewDTO(&page.Items[i]))
	}
	return out
}
