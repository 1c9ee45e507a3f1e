package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	counters := `
CREATE TABLE IF NOT EXISTS order_counters (
  year INTEGER PRIMARY KEY,
  seq INTEGER NOT NULL,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  items TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'placed',
  status_history TEXT NOT NULL DEFAULT '[]',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  payment_reference TEXT,
  shipping_address TEXT NOT NULL,
  subtotal NUMERIC NOT NULL,
  shipping_cost NUMERIC NOT NULL,
  tax NUMERIC NOT NULL,
  discount NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  tracking_number TEXT,
  estimated_delivery DATETIME,
  actual_delivery DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  cancellation_reason TEXT,
  return_reason TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	artisans := `
CREATE TABLE IF NOT EXISTS artisans (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  business_name TEXT NOT NULL,
  slug TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL,
  bio TEXT,
  craft TEXT,
  location TEXT,
  shipping_address TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  pending_changes TEXT,
  approval_status TEXT NOT NULL DEFAULT 'pending',
  approved_by TEXT,
  approved_at DATETIME,
  approval_notes TEXT,
  rejection_reason TEXT,
  reviewed_by TEXT,
  reviewed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  artisan_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT,
  category TEXT NOT NULL,
  price NUMERIC NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  image TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  approval_status TEXT NOT NULL DEFAULT 'pending',
  approved_by TEXT,
  approved_at DATETIME,
  approval_notes TEXT,
  rejection_reason TEXT,
  reviewed_by TEXT,
  reviewed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range []string{counters, orders, artisans, products} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newOrderRecord(userID uuid.UUID, number string, status enums.OrderStatus, total string, createdAt time.Time) *models.Order {
	amount := decimal.RequireFromString(total)
	return &models.Order{
		ID:          uuid.New(),
		OrderNumber: number,
		UserID:      userID,
		Items: types.OrderItems{{
			ProductID: uuid.New(),
			ArtisanID: uuid.New(),
			Name:      "Terracotta vase",
			Price:     amount,
			Quantity:  1,
			LineTotal: amount,
		}},
		Status:        status,
		StatusHistory: SeedHistory(userID, createdAt),
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: "cod",
		ShippingAddress: types.Address{
			FullName: "Asha Rao", Phone: "9999999999", Line1: "12 MG Road",
			City: "Pune", State: "MH", PostalCode: "411001",
		},
		Subtotal:     amount,
		ShippingCost: decimal.Zero,
		Tax:          decimal.Zero,
		Discount:     decimal.Zero,
		Total:        amount,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func TestSequencerNextIsMonotonicPerYear(t *testing.T) {
	db := setupOrdersTestDB(t)
	ctx := context.Background()
	seq := NewSequencer()

	first, err := seq.Next(ctx, db, 2026)
	require.NoError(t, err)
	assert.Equal(t, "ZM-2026-000001", first)

	second, err := seq.Next(ctx, db, 2026)
	require.NoError(t, err)
	assert.Equal(t, "ZM-2026-000002", second)

	otherYear, err := seq.Next(ctx, db, 2027)
	require.NoError(t, err)
	assert.Equal(t, "ZM-2027-000001", otherYear)

	_, s1, err := ParseOrderNumber(first)
	require.NoError(t, err)
	_, s2, err := ParseOrderNumber(second)
	require.NoError(t, err)
	assert.Less(t, s1, s2)
}

func TestSequencerNextRejectsSequenceBeyondSixDigits(t *testing.T) {
	db := setupOrdersTestDB(t)
	ctx := context.Background()
	seq := NewSequencer()

	require.NoError(t, db.Exec(`INSERT INTO order_counters (year, seq, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`, 2026, MaxOrderSequence-1).Error)

	last, err := seq.Next(ctx, db, 2026)
	require.NoError(t, err)
	assert.Equal(t, "ZM-2026-999999", last)

	_, err = seq.Next(ctx, db, 2026)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	next, err := seq.Next(ctx, db, 2027)
	require.NoError(t, err)
	assert.Equal(t, "ZM-2027-000001", next)
}

func TestRepositorySaveLifecycleLeavesSnapshotsAlone(t *testing.T) {
	db := setupOrdersTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	buyer := uuid.New()
	order := newOrderRecord(buyer, "ZM-2026-000010", enums.OrderStatusPlaced, "120.00", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	loaded, err := repo.FindByIDForUpdate(ctx, order.ID)
	require.NoError(t, err)
	admin := uuid.New()
	ApplyStatusTransition(loaded, enums.OrderStatusDelivered, nil, &admin, time.Now().UTC())
	loaded.Items[0].Name = "tampered"
	require.NoError(t, repo.SaveLifecycle(ctx, loaded))

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, reloaded.Status)
	assert.Len(t, reloaded.StatusHistory, 2)
	assert.NotNil(t, reloaded.DeliveredAt)
	assert.Equal(t, "Terracotta vase", reloaded.Items[0].Name)
	assert.Equal(t, "Pune", reloaded.ShippingAddress.City)
}

func TestRepositoryStatsForUser(t *testing.T) {
	db := setupOrdersTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	buyer := uuid.New()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, newOrderRecord(buyer, "ZM-2026-000001", enums.OrderStatusPlaced, "100.00", now)))
	require.NoError(t, repo.Create(ctx, newOrderRecord(buyer, "ZM-2026-000002", enums.OrderStatusPlaced, "50.50", now)))
	require.NoError(t, repo.Create(ctx, newOrderRecord(buyer, "ZM-2026-000003", enums.OrderStatusDelivered, "20.00", now)))
	require.NoError(t, repo.Create(ctx, newOrderRecord(uuid.New(), "ZM-2026-000004", enums.OrderStatusPlaced, "999.00", now)))

	stats, err := repo.StatsForUser(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byStatus := map[enums.OrderStatus]StatusStat{}
	for _, stat := range stats {
		byStatus[stat.Status] = stat
	}
	assert.Equal(t, int64(2), byStatus[enums.OrderStatusPlaced].Count)
	assert.True(t, byStatus[enums.OrderStatusPlaced].TotalAmount.Equal(decimal.RequireFromString("150.5")))
	assert.Equal(t, int64(1), byStatus[enums.OrderStatusDelivered].Count)
}

func TestRepositoryListForUserPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	buyer := uuid.New()
	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		number := FormatOrderNumber(2026, int64(i+1))
		require.NoError(t, repo.Create(ctx, newOrderRecord(buyer, number, enums.OrderStatusPlaced, "10.00", base.Add(time.Duration(i)*time.Minute))))
	}

	page, err := repo.ListForUser(ctx, buyer, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "ZM-2026-000003", page.Items[0].OrderNumber)
	require.NotEmpty(t, page.NextCursor)

	next, err := repo.ListForUser(ctx, buyer, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "ZM-2026-000001", next.Items[0].OrderNumber)
	assert.Empty(t, next.NextCursor)
}

func TestRepositoryDecrementStock(t *testing.T) {
	db := setupOrdersTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	product := models.Product{
		ID:        uuid.New(),
		ArtisanID: uuid.New(),
		Name:      "Brass lamp",
		Slug:      "brass-lamp",
		Category:  "decor",
		Price:     decimal.RequireFromString("450"),
		Stock:     3,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&product).Error)

	ok, err := repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.FindProductForUpdate(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Stock)
}
