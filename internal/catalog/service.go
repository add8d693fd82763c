package catalog

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/influenciando/reseller-backend/pkg/db/models"
	"github.com/influenciando/reseller-backend/pkg/errors"
	"github.com/influenciando/reseller-backend/pkg/logger"
	"github.com/influenciando/reseller-backend/pkg/metrics"
	"github.com/influenciando/reseller-backend/pkg/provider"
)

const syncJobName = "catalog_sync"

// ProviderCatalog fetches the upstream service list.
type ProviderCatalog interface {
	Services(ctx context.Context) ([]provider.ServiceEntry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// UpdateServiceInput carries the admin-editable catalog fields. Nil fields
// are left untouched.
type UpdateServiceInput struct {
	ProfitMargin *float64 `json:"profit_margin" validate:"omitempty,gte=0"`
	Name         *string  `json:"name" validate:"omitempty,min=1"`
	Description  *string  `json:"description"`
}

// SyncResult summarizes one catalog sync pass.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo          Repository
	Provider      ProviderCatalog
	DB            txRunner
	Logger        *logger.Logger
	Metrics       *metrics.SyncMetrics
	DefaultMargin float64
}

// Service keeps the local catalog mirrored from the fulfillment provider.
type Service struct {
	repo          Repository
	provider      ProviderCatalog
	db            txRunner
	logger        *logger.Logger
	metrics       *metrics.SyncMetrics
	defaultMargin float64
}

// NewService builds a catalog service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	if params.Provider == nil {
		return nil, stderrors.New("provider client is required")
	}
	if params.DB == nil {
		return nil, stderrors.New("db runner is required")
	}
	if params.Logger == nil {
		return nil, stderrors.New("logger is required")
	}
	if params.DefaultMargin < 0 {
		return nil, stderrors.New("default margin must not be negative")
	}
	return &Service{
		repo:          params.Repo,
		provider:      params.Provider,
		db:            params.DB,
		logger:        params.Logger,
		metrics:       params.Metrics,
		defaultMargin: params.DefaultMargin,
	}, nil
}

// Sync mirrors the provider's service list into the local catalog. Existing
// rows keep their profit margin, new rows get the configured default. A
// provider failure aborts before any write; the upserts commit together.
func (s *Service) Sync(ctx context.Context) (*SyncResult, error) {
	started := time.Now()

	entries, err := s.provider.Services(ctx)
	if err != nil {
		s.metrics.IncFailure(syncJobName)
		return nil, err
	}

	result := &SyncResult{}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, entry := range entries {
			existing, err := repo.FindByProviderServiceID(ctx, entry.Service.Int64())
			if err != nil {
				return err
			}
			if existing != nil {
				applyEntry(existing, entry)
				if err := repo.Update(ctx, existing); err != nil {
					return err
				}
				result.Updated++
				continue
			}

			svc := &models.Service{
				ProviderServiceID: entry.Service.Int64(),
				ProfitMargin:      s.defaultMargin,
			}
			applyEntry(svc, entry)
			if err := repo.Create(ctx, svc); err != nil {
				return err
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		s.metrics.IncFailure(syncJobName)
		return nil, errors.Wrap(errors.CodeInternal, err, "persist catalog sync")
	}

	s.metrics.ObserveDuration(syncJobName, time.Since(started))
	s.metrics.IncSuccess(syncJobName)
	s.metrics.AddUpdated(syncJobName, result.Created+result.Updated)

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"created": result.Created,
		"updated": result.Updated,
	})
	s.logger.Info(logCtx, "catalog synchronized")
	return result, nil
}

// Update applies admin edits to one catalog entry.
func (s *Service) Update(ctx context.Context, serviceID uuid.UUID, input UpdateServiceInput) (*models.Service, error) {
	svc, err := s.repo.FindByID(ctx, serviceID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load service")
	}
	if svc == nil {
		return nil, errors.New(errors.CodeNotFound, "service not found")
	}

	if input.ProfitMargin != nil {
		svc.ProfitMargin = *input.ProfitMargin
	}
	if input.Name != nil {
		svc.Name = *input.Name
	}
	if input.Description != nil {
		svc.Description = *input.Description
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "update service")
	}
	return svc, nil
}

// Get returns one catalog entry.
func (s *Service) Get(ctx context.Context, serviceID uuid.UUID) (*models.Service, error) {
	svc, err := s.repo.FindByID(ctx, serviceID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load service")
	}
	if svc == nil {
		return nil, errors.New(errors.CodeNotFound, "service not found")
	}
	return svc, nil
}

// List returns catalog entries, optionally filtered by category.
func (s *Service) List(ctx context.Context, category string) ([]models.Service, error) {
	out, err := s.repo.List(ctx, ListServicesQuery{Category: category})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list services")
	}
	return out, nil
}

// Categories returns the distinct non-empty categories in the catalog.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	out, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list categories")
	}
	return out, nil
}

// FindByID satisfies the order ledger's catalog dependency.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return s.repo.FindByID(ctx, id)
}

func applyEntry(svc *models.Service, entry provider.ServiceEntry) {
	svc.Name = entry.Name
	svc.Description = entry.Description
	svc.Rate = entry.Rate.Float64()
	svc.ServiceType = entry.Type
	svc.Category = entry.Category
	// A zero bound means the provider reports no limit on that side.
	svc.MinQuantity = nil
	svc.MaxQuantity = nil
	if v := entry.Min.Int(); v > 0 {
		svc.MinQuantity = &v
	}
	if v := entry.Max.Int(); v > 0 {
		svc.MaxQuantity = &v
	}
}
