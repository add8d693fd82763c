package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/influenciando/reseller-backend/pkg/db/models"
	"github.com/influenciando/reseller-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	services := `
CREATE TABLE IF NOT EXISTS services (
  id TEXT PRIMARY KEY,
  provider_service_id INTEGER NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  rate REAL NOT NULL DEFAULT 0,
  min_quantity INTEGER,
  max_quantity INTEGER,
  service_type TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  profit_margin REAL NOT NULL DEFAULT 0.2,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  provider_order_id INTEGER UNIQUE,
  user_id TEXT NOT NULL,
  service_id TEXT NOT NULL,
  link TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price_paid REAL NOT NULL,
  cost_to_us REAL NOT NULL,
  status TEXT NOT NULL DEFAULT 'Pending Payment',
  start_count INTEGER,
  remains INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(services).Error)
	require.NoError(t, db.Exec(orders).Error)
	return db
}

func insertOrder(t *testing.T, repo Repository, userID uuid.UUID, status enums.OrderStatus, providerOrderID *int64, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:              uuid.New(),
		ProviderOrderID: providerOrderID,
		UserID:          userID,
		ServiceID:       uuid.New(),
		Link:            "https://instagram.com/someone",
		Quantity:        100,
		PricePaid:       60,
		CostToUs:        50,
		Status:          status,
		CreatedAt:       createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func int64Ptr(v int64) *int64 { return &v }

func TestRepositoryListNewestFirst(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	userID := uuid.New()
	otherID := uuid.New()

	older := insertOrder(t, repo, userID, enums.OrderStatusPendingPayment, nil, time.Now().Add(-time.Hour))
	newer := insertOrder(t, repo, userID, enums.OrderStatusPaid, nil, time.Now())
	insertOrder(t, repo, otherID, enums.OrderStatusPaid, nil, time.Now())

	all, err := repo.List(context.Background(), ListOrdersQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := repo.List(context.Background(), ListOrdersQuery{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)
	assert.Equal(t, older.ID, mine[1].ID)
}

func TestRepositoryListActiveExcludesTerminalAndUnsubmitted(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	userID := uuid.New()

	active := insertOrder(t, repo, userID, enums.OrderStatusProcessing, int64Ptr(1001), time.Now())
	insertOrder(t, repo, userID, enums.OrderStatusCompleted, int64Ptr(1002), time.Now())
	insertOrder(t, repo, userID, enums.OrderStatusCanceled, int64Ptr(1003), time.Now())
	insertOrder(t, repo, userID, enums.OrderStatusRefunded, int64Ptr(1004), time.Now())
	insertOrder(t, repo, userID, enums.OrderStatusPaid, nil, time.Now())

	got, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)
}

func TestRepositoryMarkSubmittedIsConditional(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	order := insertOrder(t, repo, uuid.New(), enums.OrderStatusPaid, nil, time.Now())

	ok, err := repo.MarkSubmitted(context.Background(), order.ID, 4242)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, reloaded.Status)
	require.NotNil(t, reloaded.ProviderOrderID)
	assert.Equal(t, int64(4242), *reloaded.ProviderOrderID)

	// second attempt loses: status is no longer Paid
	ok, err = repo.MarkSubmitted(context.Background(), order.ID, 9999)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err = repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4242), *reloaded.ProviderOrderID)
}
