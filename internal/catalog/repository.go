package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/influenciando/reseller-backend/pkg/db/models"
)

// Repository handles catalog persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, service *models.Service) error
	Update(ctx context.Context, service *models.Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	FindByProviderServiceID(ctx context.Context, providerServiceID int64) (*models.Service, error)
	List(ctx context.Context, params ListServicesQuery) ([]models.Service, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// ListServicesQuery configures service list queries.
type ListServicesQuery struct {
	Category string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

func (r *repository) Update(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Save(service).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var svc models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&svc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &svc, nil
}

func (r *repository) FindByProviderServiceID(ctx context.Context, providerServiceID int64) (*models.Service, error) {
	var svc models.Service
	if err := r.db.WithContext(ctx).
		Where("provider_service_id = ?", providerServiceID).
		First(&svc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &svc, nil
}

func (r *repository) List(ctx context.Context, params ListServicesQuery) ([]models.Service, error) {
	query := r.db.WithContext(ctx).Order("category ASC, name ASC")
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	var out []models.Service
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListCategories(ctx context.Context) ([]string, error) {
	var out []string
	if err := r.db.WithContext(ctx).
		Model(&models.Service{}).
		Distinct("category").
		Where("category <> ''").
		Order("category ASC").
		Pluck("category", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
