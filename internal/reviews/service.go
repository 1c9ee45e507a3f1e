package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
)

const (
	uniqueReviewConstraint = "ux_reviews_order_user_product"
	maxTitleLength         = 120
	maxCommentLength       = 2000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service lets buyers review products they received.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Review, error)
	ListForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[models.Review], Summary, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds the reviews service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: publisher,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Review, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	title := trimmed(input.Title)
	comment := trimmed(input.Comment)

	fields := map[string]string{}
	if input.OrderID == uuid.Nil {
		fields["order_id"] = "order id is required"
	}
	if input.ProductID == uuid.Nil {
		fields["product_id"] = "product id is required"
	}
	if input.Rating < 1 || input.Rating > 5 {
		fields["rating"] = "rating must be between 1 and 5"
	}
	if title != nil && len([]rune(*title)) > maxTitleLength {
		fields["title"] = fmt.Sprintf("title exceeds %d characters", maxTitleLength)
	}
	if comment != nil && len([]rune(*comment)) > maxCommentLength {
		fields["comment"] = fmt.Sprintf("comment exceeds %d characters", maxCommentLength)
	}
	if len(fields) > 0 {
		return nil, pkgerrors.NewValidation(fields)
	}

	var created *models.Review
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order not eligible for review")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if err := ensureReviewable(order, userID, input.ProductID); err != nil {
			return err
		}

		now := s.now()
		record := &models.Review{
			ID:        uuid.New(),
			OrderID:   order.ID,
			UserID:    userID,
			ProductID: input.ProductID,
			Rating:    input.Rating,
			Title:     title,
			Comment:   comment,
			CreatedAt: now,
		}
		if err := repo.Create(ctx, record); err != nil {
			if db.IsUniqueViolation(err, uniqueReviewConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product already reviewed for this order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		created = record

		buyer := userID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewCreated,
			AggregateType: enums.AggregateReview,
			AggregateID:   record.ID,
			Actor:         outbox.ActorFromID(&buyer, enums.UserRoleBuyer),
			OccurredAt:    now,
			Data: payloads.ReviewCreatedEvent{
				ReviewID:  record.ID,
				ProductID: record.ProductID,
				OrderID:   record.OrderID,
				UserID:    userID,
				Rating:    record.Rating,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ensureReviewable requires the buyer's own delivered order containing the
// product. Foreign orders report the same conflict so order ids cannot be probed.
func ensureReviewable(order *models.Order, userID, productID uuid.UUID) error {
	if order.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order not eligible for review")
	}
	if order.Status != enums.OrderStatusDelivered {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be reviewed")
	}
	if !order.Items.Contains(productID) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "product is not part of this order")
	}
	return nil
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[models.Review], Summary, error) {
	if productID == uuid.Nil {
		return pagination.Page[models.Review]{}, Summary{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.Review]{}, Summary{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.ListForProduct(ctx, productID, params)
	if err != nil {
		return pagination.Page[models.Review]{}, Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	summary, err := s.repo.Summary(ctx, productID)
	if err != nil {
		return pagination.Page[models.Review]{}, Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize reviews")
	}
	summary.Average = summary.Average.Round(1)
	return page, summary, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
