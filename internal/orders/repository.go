package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/influenciando/reseller-backend/pkg/db/models"
	"github.com/influenciando/reseller-backend/pkg/enums"
)

// Repository handles order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params ListOrdersQuery) ([]models.Order, error)
	ListActive(ctx context.Context) ([]models.Order, error)
	MarkSubmitted(ctx context.Context, id uuid.UUID, providerOrderID int64) (bool, error)
}

// ListOrdersQuery configures order list queries.
type ListOrdersQuery struct {
	UserID *uuid.UUID
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Service").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params ListOrdersQuery) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Service").
		Order("created_at DESC")
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	var out []models.Order
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive returns orders already submitted upstream that have not reached
// a terminal status, in submission order.
func (r *repository) ListActive(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := r.db.WithContext(ctx).
		Where("provider_order_id IS NOT NULL").
		Where("status NOT IN (?)", enums.TerminalOrderStatuses()).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSubmitted flips a paid order to Processing and records the upstream
// order id. The status predicate makes the transition race-safe: a second
// caller finds zero affected rows instead of double-submitting.
func (r *repository) MarkSubmitted(ctx context.Context, id uuid.UUID, providerOrderID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusPaid).
		Updates(map[string]any{
			"provider_order_id": providerOrderID,
			"status":            enums.OrderStatusProcessing,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
