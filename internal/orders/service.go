package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/logger"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/metrics"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
)

const orderNumberConstraint = "ux_orders_order_number"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderNumberer interface {
	Next(ctx context.Context, tx *gorm.DB, year int) (string, error)
}

// Service exposes the order lifecycle to buyers and administrators.
type Service interface {
	PlaceOrder(ctx context.Context, buyerID uuid.UUID, input PlaceOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus enums.OrderStatus, note *string, actorID *uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID, buyerID uuid.UUID, reason *string) (*models.Order, error)
	RequestReturn(ctx context.Context, orderID, buyerID uuid.UUID, reason string) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus, reference *string, actorID *uuid.UUID) (*models.Order, error)
	UpdateTracking(ctx context.Context, orderID uuid.UUID, input TrackingInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error)
	ListAll(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Order], error)
	GetOrderStats(ctx context.Context, userID uuid.UUID) ([]StatusStat, error)
}

// Options tunes checkout pricing and buyer windows.
type Options struct {
	Pricing      PricingConfig
	ReturnWindow time.Duration
	MaxItems     int
	Metrics      *metrics.WorkflowMetrics
	Logger       *logger.Logger
	Clock        func() time.Time
}

type service struct {
	repo         Repository
	tx           txRunner
	outbox       outboxPublisher
	numbers      orderNumberer
	pricing      PricingConfig
	returnWindow time.Duration
	maxItems     int
	metrics      *metrics.WorkflowMetrics
	logg         *logger.Logger
	now          func() time.Time
}

// NewService builds the order service with its collaborators.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, numbers orderNumberer, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if numbers == nil {
		numbers = NewSequencer()
	}
	if opts.ReturnWindow <= 0 {
		opts.ReturnWindow = ReturnWindow
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:         repo,
		tx:           tx,
		outbox:       publisher,
		numbers:      numbers,
		pricing:      opts.Pricing,
		returnWindow: opts.ReturnWindow,
		maxItems:     opts.MaxItems,
		metrics:      opts.Metrics,
		logg:         opts.Logger,
		now:          opts.Clock,
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus enums.OrderStatus, note *string, actorID *uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !newStatus.IsValid() {
		return nil, pkgerrors.NewValidation(map[string]string{"status": fmt.Sprintf("invalid order status %q", newStatus)})
	}

	return s.mutate(ctx, orderID, newStatus, trimmed(note), actorID, nil)
}

func (s *service) Cancel(ctx context.Context, orderID, buyerID uuid.UUID, reason *string) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	reason = trimmed(reason)

	return s.mutate(ctx, orderID, enums.OrderStatusCancelled, reason, &buyerID, func(order *models.Order) error {
		if order.UserID != buyerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !CanBeCancelled(order) {
			return pkgerrors.NewStateConflict(fmt.Sprintf("order cannot be cancelled once %s", order.Status), order.Status)
		}
		order.CancellationReason = reason
		return nil
	})
}

func (s *service) RequestReturn(ctx context.Context, orderID, buyerID uuid.UUID, reason string) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.NewValidation(map[string]string{"reason": "return reason is required"})
	}

	return s.mutate(ctx, orderID, enums.OrderStatusReturned, &reason, &buyerID, func(order *models.Order) error {
		if order.UserID != buyerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !canBeReturnedWithin(order, s.now(), s.returnWindow) {
			return pkgerrors.NewStateConflict("order is not eligible for return", order.Status)
		}
		order.ReturnReason = &reason
		return nil
	})
}

// mutate locks the order, runs the guard, applies the status transition and
// persists the lifecycle columns plus the outbox event in one transaction.
func (s *service) mutate(
	ctx context.Context,
	orderID uuid.UUID,
	newStatus enums.OrderStatus,
	note *string,
	actorID *uuid.UUID,
	guard func(order *models.Order) error,
) (*models.Order, error) {
	var (
		result   *models.Order
		previous enums.OrderStatus
		changed  bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return loadError(err)
		}
		if guard != nil {
			if err := guard(order); err != nil {
				return err
			}
		}

		now := s.now()
		previous = order.Status
		changed = ApplyStatusTransition(order, newStatus, note, actorID, now)
		order.UpdatedAt = now

		if err := repo.SaveLifecycle(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		result = order
		if !changed {
			return nil
		}

		recorded := defaultStatusNote(newStatus)
		if note != nil {
			recorded = *note
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         outbox.ActorFromID(actorID, ""),
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				BuyerID:        order.UserID,
				PreviousStatus: previous,
				Status:         newStatus,
				Note:           recorded,
				ChangedAt:      now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.IncOrderTransition(string(previous), string(newStatus))
		s.info(ctx, result, fmt.Sprintf("order status %s -> %s", previous, newStatus))
	}
	return result, nil
}

func (s *service) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus, reference *string, actorID *uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.NewValidation(map[string]string{"payment_status": fmt.Sprintf("invalid payment status %q", status)})
	}
	reference = trimmed(reference)

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return loadError(err)
		}
		previous := order.PaymentStatus
		order.PaymentStatus = status
		if reference != nil {
			order.PaymentReference = reference
		}
		order.UpdatedAt = s.now()
		if err := repo.SaveLifecycle(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		result = order
		if previous == status {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         outbox.ActorFromID(actorID, ""),
			Data: payloads.OrderPaymentStatusChangedEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				PreviousStatus:   previous,
				Status:           status,
				PaymentReference: order.PaymentReference,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) UpdateTracking(ctx context.Context, orderID uuid.UUID, input TrackingInput) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	tracking := strings.TrimSpace(input.TrackingNumber)
	if tracking == "" {
		return nil, pkgerrors.NewValidation(map[string]string{"tracking_number": "tracking number is required"})
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return loadError(err)
		}
		order.TrackingNumber = &tracking
		if input.EstimatedDelivery != nil {
			eta := input.EstimatedDelivery.UTC()
			order.EstimatedDelivery = &eta
		}
		order.UpdatedAt = s.now()
		if err := repo.SaveLifecycle(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tracking")
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, loadError(err)
	}
	return order, nil
}

func (s *service) GetForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	if userID == uuid.Nil {
		return pagination.Page[models.Order]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page, nil
}

func (s *service) ListAll(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Order], error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return pagination.Page[models.Order]{}, pkgerrors.NewValidation(map[string]string{"status": "invalid order status"})
	}
	if filter.PaymentStatus != nil && !filter.PaymentStatus.IsValid() {
		return pagination.Page[models.Order]{}, pkgerrors.NewValidation(map[string]string{"payment_status": "invalid payment status"})
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.ListAll(ctx, filter, params)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page, nil
}

func (s *service) GetOrderStats(ctx context.Context, userID uuid.UUID) ([]StatusStat, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	stats, err := s.repo.StatsForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate order stats")
	}
	for i := range stats {
		stats[i].TotalAmount = stats[i].TotalAmount.Round(2)
	}
	if stats == nil {
		stats = []StatusStat{}
	}
	return stats, nil
}

func (s *service) PlaceOrder(ctx context.Context, buyerID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	selections, err := s.validatePlaceOrder(input)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.now()

		items, err := s.snapshotItems(ctx, repo, selections)
		if err != nil {
			return err
		}

		shipping := s.pricing.ShippingFor(subtotalOf(items))
		totals := ComputeTotals(items, shipping, s.pricing.TaxRate, decimal.Zero)

		number, err := s.numbers.Next(ctx, tx, now.Year())
		if err != nil {
			if pkgerrors.As(err) != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		address := input.ShippingAddress
		record := &models.Order{
			ID:              uuid.New(),
			OrderNumber:     number,
			UserID:          buyerID,
			Items:           items,
			Status:          enums.OrderStatusPlaced,
			StatusHistory:   SeedHistory(buyerID, now),
			PaymentStatus:   enums.PaymentStatusPending,
			PaymentMethod:   strings.ToLower(strings.TrimSpace(input.PaymentMethod)),
			ShippingAddress: address,
			Subtotal:        totals.Subtotal,
			ShippingCost:    totals.ShippingCost,
			Tax:             totals.Tax,
			Discount:        totals.Discount,
			Total:           totals.Total,
			Notes:           trimmed(input.Notes),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := repo.Create(ctx, record); err != nil {
			if db.IsUniqueViolation(err, orderNumberConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already allocated")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		order = record
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   record.ID,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: enums.UserRoleBuyer},
			OccurredAt:    now,
			Data: payloads.OrderPlacedEvent{
				OrderID:     record.ID,
				OrderNumber: record.OrderNumber,
				BuyerID:     buyerID,
				ArtisanIDs:  artisanIDs(items),
				ItemCount:   len(items),
				Total:       record.Total,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncOrderTransition("", string(enums.OrderStatusPlaced))
	s.info(ctx, order, "order placed")
	return order, nil
}

func (s *service) info(ctx context.Context, order *models.Order, msg string) {
	if s.logg == nil || order == nil {
		return
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, msg)
}

func loadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
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
