package reconcile

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/influenciando/reseller-backend/internal/orders"
	"github.com/influenciando/reseller-backend/pkg/auth"
	"github.com/influenciando/reseller-backend/pkg/db/models"
	"github.com/influenciando/reseller-backend/pkg/enums"
	"github.com/influenciando/reseller-backend/pkg/errors"
	"github.com/influenciando/reseller-backend/pkg/logger"
	"github.com/influenciando/reseller-backend/pkg/metrics"
	"github.com/influenciando/reseller-backend/pkg/provider"
)

const syncJobName = "order_sync"

// fulfillmentClient is the slice of the provider API the engine needs.
type fulfillmentClient interface {
	CreateOrder(ctx context.Context, p provider.CreateOrderParams) (int64, error)
	OrderStatus(ctx context.Context, providerOrderID int64) (*provider.OrderStatus, error)
	MultiOrderStatus(ctx context.Context, providerOrderIDs []int64) (map[string]provider.OrderStatusResult, error)
	RefillOrder(ctx context.Context, providerOrderID int64) (int64, error)
}

type ledger interface {
	Get(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*models.Order, error)
	ApplyPaymentStatus(ctx context.Context, orderID uuid.UUID, gatewayStatus string) (*models.Order, error)
	ApplyProviderStatus(ctx context.Context, order *models.Order, status provider.OrderStatus) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SyncAllResult summarizes one status sweep over all active orders.
type SyncAllResult struct {
	UpdatedCount int `json:"updated_count"`
}

// RefillResult acknowledges a refill request.
type RefillResult struct {
	OrderID  uuid.UUID `json:"order_id"`
	RefillID int64     `json:"refill_id"`
}

// ServiceParams groups dependencies for the reconciliation engine.
type ServiceParams struct {
	Repo     orders.Repository
	Ledger   ledger
	Provider fulfillmentClient
	DB       txRunner
	Logger   *logger.Logger
	Metrics  *metrics.SyncMetrics
}

// Service drives orders across the external boundaries: submission to the
// fulfillment provider and status reconciliation back from it.
type Service struct {
	repo     orders.Repository
	ledger   ledger
	provider fulfillmentClient
	db       txRunner
	logger   *logger.Logger
	metrics  *metrics.SyncMetrics
}

// NewService builds a reconciliation engine.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	if params.Ledger == nil {
		return nil, stderrors.New("ledger is required")
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
	return &Service{
		repo:     params.Repo,
		ledger:   params.Ledger,
		provider: params.Provider,
		db:       params.DB,
		logger:   params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// SubmitOrder sends a paid order to the fulfillment provider. On provider
// failure the order is left as-is so an operator can retry; money has
// already been collected. The status predicate on the persist step stops a
// concurrent second submission.
func (s *Service) SubmitOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, errors.New(errors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, errors.New(errors.CodeStateConflict, "order must be paid before processing")
	}
	if order.Service == nil {
		return nil, errors.New(errors.CodeInternal, "order has no service loaded")
	}

	providerOrderID, err := s.provider.CreateOrder(ctx, provider.CreateOrderParams{
		ServiceID: order.Service.ProviderServiceID,
		Link:      order.Link,
		Quantity:  order.Quantity,
	})
	if err != nil {
		logCtx := s.logger.WithOrderID(ctx, order.ID.String())
		s.logger.Error(logCtx, "order submission failed", err)
		return nil, err
	}

	ok, err := s.repo.MarkSubmitted(ctx, order.ID, providerOrderID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "persist submission")
	}
	if !ok {
		// A concurrent request won the race after our provider call. The
		// upstream order this request created is now untracked and needs
		// operator attention.
		logCtx := s.logger.WithOrderID(ctx, order.ID.String())
		logCtx = s.logger.WithField(logCtx, "provider_order_id", providerOrderID)
		s.logger.Error(logCtx, "submission race lost, untracked upstream order", nil)
		return nil, errors.New(errors.CodeStateConflict, "order was already submitted")
	}

	submitted, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "reload order")
	}

	logCtx := s.logger.WithOrderID(ctx, order.ID.String())
	logCtx = s.logger.WithField(logCtx, "provider_order_id", providerOrderID)
	s.logger.Info(logCtx, "order submitted to provider")
	return submitted, nil
}

// SyncOne refreshes one order from the provider if it is eligible. A
// provider-side failure returns the local order unchanged; stale beats
// broken for a read path.
func (s *Service) SyncOne(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.ledger.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.ProviderOrderID == nil || order.Status.IsTerminal() {
		return order, nil
	}

	status, err := s.provider.OrderStatus(ctx, *order.ProviderOrderID)
	if err != nil {
		logCtx := s.logger.WithOrderID(ctx, order.ID.String())
		s.logger.Warn(logCtx, "status refresh failed, returning stale order")
		return order, nil
	}

	if err := s.ledger.ApplyProviderStatus(ctx, order, *status); err != nil {
		return nil, err
	}
	return order, nil
}

// SyncAll reconciles every active order in one batch status call. The
// provider call is all-or-nothing; the per-order writes commit together.
// Orders missing from the batch response are left unchanged.
func (s *Service) SyncAll(ctx context.Context) (*SyncAllResult, error) {
	started := time.Now()

	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list active orders")
	}
	if len(active) == 0 {
		return &SyncAllResult{}, nil
	}

	ids := make([]int64, 0, len(active))
	for _, order := range active {
		if order.ProviderOrderID != nil {
			ids = append(ids, *order.ProviderOrderID)
		}
	}

	results, err := s.provider.MultiOrderStatus(ctx, ids)
	if err != nil {
		s.metrics.IncFailure(syncJobName)
		return nil, err
	}

	result := &SyncAllResult{}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i := range active {
			order := &active[i]
			if order.ProviderOrderID == nil {
				continue
			}
			entry, found := results[strconv.FormatInt(*order.ProviderOrderID, 10)]
			if !found || entry.Err() != nil {
				continue
			}
			orders.ApplyProviderFields(order, entry.OrderStatus)
			if err := repo.Update(ctx, order); err != nil {
				return err
			}
			result.UpdatedCount++
		}
		return nil
	})
	if err != nil {
		s.metrics.IncFailure(syncJobName)
		return nil, errors.Wrap(errors.CodeInternal, err, "persist status sweep")
	}

	s.metrics.ObserveDuration(syncJobName, time.Since(started))
	s.metrics.IncSuccess(syncJobName)
	s.metrics.AddUpdated(syncJobName, result.UpdatedCount)

	logCtx := s.logger.WithField(ctx, "updated_count", result.UpdatedCount)
	s.logger.Info(logCtx, "order statuses synchronized")
	return result, nil
}

// RequestRefill asks the provider to refill a submitted order.
func (s *Service) RequestRefill(ctx context.Context, orderID uuid.UUID) (*RefillResult, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, errors.New(errors.CodeNotFound, "order not found")
	}
	if order.ProviderOrderID == nil {
		return nil, errors.New(errors.CodeStateConflict, "order was never submitted to the provider")
	}

	refillID, err := s.provider.RefillOrder(ctx, *order.ProviderOrderID)
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithOrderID(ctx, order.ID.String())
	logCtx = s.logger.WithField(logCtx, "refill_id", refillID)
	s.logger.Info(logCtx, "refill requested")
	return &RefillResult{OrderID: order.ID, RefillID: refillID}, nil
}
