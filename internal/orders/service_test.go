package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

type stubOrdersRepo struct {
	orders   map[uuid.UUID]*models.Order
	products map[uuid.UUID]*models.Product
	artisans map[uuid.UUID]*models.Artisan
	created  []*models.Order
	saved    int
	stats    []StatusStat
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		orders:   map[uuid.UUID]*models.Order{},
		products: map[uuid.UUID]*models.Product{},
		artisans: map[uuid.UUID]*models.Artisan{},
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	s.created = append(s.created, order)
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrdersRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.FindByID(ctx, id)
}

func (s *stubOrdersRepo) SaveLifecycle(ctx context.Context, order *models.Order) error {
	s.saved++
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrdersRepo) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListAll(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Order], error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) StatsForUser(ctx context.Context, userID uuid.UUID) ([]StatusStat, error) {
	return s.stats, nil
}

func (s *stubOrdersRepo) FindProductForUpdate(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, ok := s.products[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubOrdersRepo) FindArtisan(ctx context.Context, artisanID uuid.UUID) (*models.Artisan, error) {
	artisan, ok := s.artisans[artisanID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return artisan, nil
}

func (s *stubOrdersRepo) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	product := s.products[productID]
	if product == nil || product.Stock < qty {
		return false, nil
	}
	product.Stock -= qty
	return true, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubNumberer struct {
	seq int64
	err error
}

func (s *stubNumberer) Next(ctx context.Context, tx *gorm.DB, year int) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.seq++
	return FormatOrderNumber(year, s.seq), nil
}

var fixedNow = time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo *stubOrdersRepo, pub *stubOutbox) Service {
	t.Helper()
	return newTestServiceWithNumberer(t, repo, pub, &stubNumberer{})
}

func newTestServiceWithNumberer(t *testing.T, repo *stubOrdersRepo, pub *stubOutbox, numbers *stubNumberer) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, pub, numbers, Options{
		Pricing: PricingConfig{
			TaxRate:          decimal.RequireFromString("0.18"),
			FlatShipping:     decimal.RequireFromString("50"),
			FreeShippingFrom: decimal.RequireFromString("999"),
		},
		MaxItems: 10,
		Clock:    func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedOrder(repo *stubOrdersRepo, buyer uuid.UUID, status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ZM-2026-000001",
		UserID:        buyer,
		Status:        enums.OrderStatusPlaced,
		StatusHistory: SeedHistory(buyer, fixedNow.Add(-72*time.Hour)),
		PaymentStatus: enums.PaymentStatusPending,
	}
	if status != enums.OrderStatusPlaced {
		ApplyStatusTransition(order, status, nil, nil, fixedNow.Add(-48*time.Hour))
	}
	repo.orders[order.ID] = order
	return order
}

func seedPublicProduct(repo *stubOrdersRepo, price string, stock int) *models.Product {
	artisan := &models.Artisan{
		ID:           uuid.New(),
		BusinessName: "Kumhar Studio",
		IsActive:     true,
		Approval:     models.Approval{ApprovalStatus: enums.ApprovalStatusApproved},
	}
	product := &models.Product{
		ID:        uuid.New(),
		ArtisanID: artisan.ID,
		Name:      "Clay teapot",
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		IsActive:  true,
		Approval:  models.Approval{ApprovalStatus: enums.ApprovalStatusApproved},
	}
	repo.artisans[artisan.ID] = artisan
	repo.products[product.ID] = product
	return product
}

func validAddress() types.Address {
	return types.Address{
		FullName: "Asha Rao", Phone: "9999999999", Line1: "12 MG Road",
		City: "Pune", State: "MH", PostalCode: "411001",
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
	return typed
}

func TestUpdateStatusEmitsEventOnlyOnChange(t *testing.T) {
	repo := newStubOrdersRepo()
	pub := &stubOutbox{}
	svc := newTestService(t, repo, pub)
	order := seedOrder(repo, uuid.New(), enums.OrderStatusPacked)
	admin := uuid.New()

	updated, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusShipped, nil, &admin)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", updated.Status)
	}
	historyLen := len(updated.StatusHistory)

	if _, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusShipped, nil, &admin); err != nil {
		t.Fatalf("repeat update: %v", err)
	}
	if len(repo.orders[order.ID].StatusHistory) != historyLen {
		t.Fatal("repeated shipped must not grow history")
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
	payload, ok := pub.events[0].Data.(payloads.OrderStatusChangedEvent)
	if !ok {
		t.Fatalf("unexpected payload %T", pub.events[0].Data)
	}
	if payload.PreviousStatus != enums.OrderStatusPacked || payload.Status != enums.OrderStatusShipped {
		t.Fatalf("unexpected transition %s -> %s", payload.PreviousStatus, payload.Status)
	}
	if pub.events[0].Actor == nil || pub.events[0].Actor.UserID != admin {
		t.Fatal("expected admin actor on event")
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, &stubOutbox{})
	order := seedOrder(repo, uuid.New(), enums.OrderStatusPlaced)

	_, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatus("teleported"), nil, nil)
	typed := requireCode(t, err, pkgerrors.CodeValidation)
	if fields, ok := typed.Details().(map[string]string); !ok || fields["status"] == "" {
		t.Fatalf("expected status field detail, got %#v", typed.Details())
	}
	if repo.saved != 0 {
		t.Fatal("nothing should be persisted on validation failure")
	}
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	svc := newTestService(t, newStubOrdersRepo(), &stubOutbox{})
	_, err := svc.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatusShipped, nil, nil)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestCancelHonoursEligibility(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, &stubOutbox{})
	buyer := uuid.New()
	reason := "ordered twice"

	open := seedOrder(repo, buyer, enums.OrderStatusConfirmed)
	cancelled, err := svc.Cancel(context.Background(), open.ID, buyer, &reason)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled order %+v", cancelled)
	}
	if cancelled.CancellationReason == nil || *cancelled.CancellationReason != reason {
		t.Fatal("expected cancellation reason stored")
	}
	last := cancelled.StatusHistory[len(cancelled.StatusHistory)-1]
	if last.Note != reason {
		t.Fatalf("expected reason as history note, got %q", last.Note)
	}

	shipped := seedOrder(repo, buyer, enums.OrderStatusShipped)
	_, err = svc.Cancel(context.Background(), shipped.ID, buyer, nil)
	requireCode(t, err, pkgerrors.CodeStateConflict)

	_, err = svc.Cancel(context.Background(), seedOrder(repo, buyer, enums.OrderStatusPlaced).ID, uuid.New(), nil)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestRequestReturnWindow(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, &stubOutbox{})
	buyer := uuid.New()

	recent := seedOrder(repo, buyer, enums.OrderStatusDelivered)
	returned, err := svc.RequestReturn(context.Background(), recent.ID, buyer, "damaged in transit")
	if err != nil {
		t.Fatalf("request return: %v", err)
	}
	if returned.Status != enums.OrderStatusReturned || returned.ReturnReason == nil {
		t.Fatalf("unexpected returned order %+v", returned)
	}

	stale := seedOrder(repo, buyer, enums.OrderStatusDelivered)
	old := fixedNow.Add(-ReturnWindow - time.Hour)
	stale.DeliveredAt = &old
	_, err = svc.RequestReturn(context.Background(), stale.ID, buyer, "changed my mind")
	requireCode(t, err, pkgerrors.CodeStateConflict)

	_, err = svc.RequestReturn(context.Background(), recent.ID, buyer, "  ")
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdatePaymentStatusIsIndependent(t *testing.T) {
	repo := newStubOrdersRepo()
	pub := &stubOutbox{}
	svc := newTestService(t, repo, pub)
	order := seedOrder(repo, uuid.New(), enums.OrderStatusShipped)
	ref := "pay_123"

	updated, err := svc.UpdatePaymentStatus(context.Background(), order.ID, enums.PaymentStatusPaid, &ref, nil)
	if err != nil {
		t.Fatalf("update payment: %v", err)
	}
	if updated.PaymentStatus != enums.PaymentStatusPaid || updated.Status != enums.OrderStatusShipped {
		t.Fatalf("unexpected order state %s/%s", updated.Status, updated.PaymentStatus)
	}
	if len(pub.events) != 1 || pub.events[0].EventType != enums.EventOrderPaymentStatusChanged {
		t.Fatalf("expected payment event, got %+v", pub.events)
	}

	_, err = svc.UpdatePaymentStatus(context.Background(), order.ID, enums.PaymentStatus("maybe"), nil, nil)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestPlaceOrderSnapshotsAndPrices(t *testing.T) {
	repo := newStubOrdersRepo()
	pub := &stubOutbox{}
	svc := newTestService(t, repo, pub)
	product := seedPublicProduct(repo, "200.00", 5)
	buyer := uuid.New()

	order, err := svc.PlaceOrder(context.Background(), buyer, PlaceOrderInput{
		Items: []LineSelection{
			{ProductID: product.ID, Quantity: 1},
			{ProductID: product.ID, Quantity: 1},
		},
		ShippingAddress: validAddress(),
		PaymentMethod:   "COD",
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if order.OrderNumber != "ZM-2026-000001" {
		t.Fatalf("unexpected order number %s", order.OrderNumber)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 || order.Items[0].ArtisanName != "Kumhar Studio" {
		t.Fatalf("unexpected snapshot %+v", order.Items)
	}
	if product.Stock != 3 {
		t.Fatalf("expected stock decremented to 3, got %d", product.Stock)
	}
	if !order.Subtotal.Equal(decimal.RequireFromString("400")) || !order.ShippingCost.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("unexpected pricing %s + %s", order.Subtotal, order.ShippingCost)
	}
	if !order.Total.Equal(order.Subtotal.Add(order.ShippingCost).Add(order.Tax).Sub(order.Discount)) {
		t.Fatal("total invariant broken")
	}
	if order.Status != enums.OrderStatusPlaced || order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("unexpected initial state %s/%s", order.Status, order.PaymentStatus)
	}
	if len(order.StatusHistory) != 1 || order.StatusHistory[0].Status != string(enums.OrderStatusPlaced) {
		t.Fatalf("expected seeded history, got %+v", order.StatusHistory)
	}
	if order.PaymentMethod != "cod" {
		t.Fatalf("expected normalized payment method, got %s", order.PaymentMethod)
	}
	if len(pub.events) != 1 || pub.events[0].EventType != enums.EventOrderPlaced {
		t.Fatalf("expected order_placed event, got %+v", pub.events)
	}

	product.Name = "Renamed teapot"
	if repo.orders[order.ID].Items[0].Name != "Clay teapot" {
		t.Fatal("snapshot must not follow product edits")
	}
}

func TestPlaceOrderValidationListsEveryField(t *testing.T) {
	svc := newTestService(t, newStubOrdersRepo(), &stubOutbox{})

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		Items: []LineSelection{{ProductID: uuid.Nil, Quantity: 0}},
	})
	typed := requireCode(t, err, pkgerrors.CodeValidation)
	fields, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %#v", typed.Details())
	}
	for _, key := range []string{"items[0].product_id", "items[0].quantity", "shipping_address.city", "payment_method"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing field %s in %v", key, fields)
		}
	}
}

func TestPlaceOrderRejectsHiddenOrShortStock(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, &stubOutbox{})
	buyer := uuid.New()

	hidden := seedPublicProduct(repo, "10", 5)
	hidden.ApprovalStatus = enums.ApprovalStatusPending
	_, err := svc.PlaceOrder(context.Background(), buyer, PlaceOrderInput{
		Items:           []LineSelection{{ProductID: hidden.ID, Quantity: 1}},
		ShippingAddress: validAddress(),
		PaymentMethod:   "upi",
	})
	requireCode(t, err, pkgerrors.CodeNotFound)

	scarce := seedPublicProduct(repo, "10", 1)
	_, err = svc.PlaceOrder(context.Background(), buyer, PlaceOrderInput{
		Items:           []LineSelection{{ProductID: scarce.ID, Quantity: 2}},
		ShippingAddress: validAddress(),
		PaymentMethod:   "upi",
	})
	requireCode(t, err, pkgerrors.CodeStateConflict)
	if len(repo.created) != 0 {
		t.Fatal("no order should be created")
	}
}

func TestPlaceOrderSurfacesExhaustedOrderNumbers(t *testing.T) {
	repo := newStubOrdersRepo()
	pub := &stubOutbox{}
	exhausted := pkgerrors.New(pkgerrors.CodeConflict, "order numbers for 2026 are exhausted")
	svc := newTestServiceWithNumberer(t, repo, pub, &stubNumberer{err: exhausted})
	product := seedPublicProduct(repo, "200.00", 5)

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		Items:           []LineSelection{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: validAddress(),
		PaymentMethod:   "cod",
	})
	requireCode(t, err, pkgerrors.CodeConflict)
	if len(repo.created) != 0 || len(pub.events) != 0 {
		t.Fatal("no order or event should be recorded")
	}

	svc = newTestServiceWithNumberer(t, repo, pub, &stubNumberer{err: errors.New("counter table locked")})
	_, err = svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		Items:           []LineSelection{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: validAddress(),
		PaymentMethod:   "cod",
	})
	requireCode(t, err, pkgerrors.CodeDependency)
}

func TestGetForBuyerHidesOtherUsersOrders(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, &stubOutbox{})
	order := seedOrder(repo, uuid.New(), enums.OrderStatusPlaced)

	_, err := svc.GetForBuyer(context.Background(), order.ID, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestGetOrderStatsNeverNil(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, &stubOutbox{})

	stats, err := svc.GetOrderStats(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats == nil || len(stats) != 0 {
		t.Fatalf("expected empty slice, got %#v", stats)
	}

	_, err = svc.GetOrderStats(context.Background(), uuid.Nil)
	requireCode(t, err, pkgerrors.CodeUnauthorized)
}
