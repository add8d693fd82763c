package orders

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/influenciando/reseller-backend/pkg/auth"
	"github.com/influenciando/reseller-backend/pkg/db/models"
	"github.com/influenciando/reseller-backend/pkg/enums"
	"github.com/influenciando/reseller-backend/pkg/errors"
	"github.com/influenciando/reseller-backend/pkg/logger"
	"github.com/influenciando/reseller-backend/pkg/mercadopago"
	"github.com/influenciando/reseller-backend/pkg/provider"
)

// ServiceFinder resolves catalog entries for order creation.
type ServiceFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

// PaymentGateway creates checkout preferences for new orders.
type PaymentGateway interface {
	CreatePreference(ctx context.Context, params mercadopago.PreferenceParams) (*mercadopago.Preference, error)
}

// ServiceParams groups dependencies for the order ledger service.
type ServiceParams struct {
	Repo    Repository
	Catalog ServiceFinder
	Gateway PaymentGateway
	Logger  *logger.Logger
}

// Service owns the order ledger: creation with frozen pricing, listing,
// and the two status-application paths (payment gateway and provider).
type Service struct {
	repo    Repository
	catalog ServiceFinder
	gateway PaymentGateway
	logger  *logger.Logger
}

// NewService builds an order ledger service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, stderrors.New("repo is required")
	}
	if params.Catalog == nil {
		return nil, stderrors.New("catalog is required")
	}
	if params.Gateway == nil {
		return nil, stderrors.New("gateway is required")
	}
	if params.Logger == nil {
		return nil, stderrors.New("logger is required")
	}
	return &Service{
		repo:    params.Repo,
		catalog: params.Catalog,
		gateway: params.Gateway,
		logger:  params.Logger,
	}, nil
}

// Create persists a new order with pricing frozen from the current catalog
// entry, then opens a checkout preference referencing it. The order row
// survives a gateway failure so the buyer can be re-invoiced.
func (s *Service) Create(ctx context.Context, actor auth.Actor, input CreateOrderInput) (*CreateOrderResult, error) {
	svc, err := s.catalog.FindByID(ctx, input.ServiceID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load service")
	}
	if svc == nil {
		return nil, errors.New(errors.CodeNotFound, "service not found")
	}
	if err := checkQuantityBounds(svc, input.Quantity); err != nil {
		return nil, err
	}

	pricePaid, costToUs := computePricing(svc, input.Quantity)
	order := &models.Order{
		UserID:    actor.UserID,
		ServiceID: svc.ID,
		Link:      input.Link,
		Quantity:  input.Quantity,
		PricePaid: pricePaid,
		CostToUs:  costToUs,
		Status:    enums.OrderStatusPendingPayment,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "create order")
	}
	order.Service = svc

	pref, err := s.gateway.CreatePreference(ctx, mercadopago.PreferenceParams{
		Title:             fmt.Sprintf("%s - %d units", svc.Name, input.Quantity),
		UnitPrice:         pricePaid,
		Quantity:          1,
		ExternalReference: order.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithOrderID(ctx, order.ID.String())
	logCtx = s.logger.WithField(logCtx, "preference_id", pref.ID)
	s.logger.Info(logCtx, "order created")

	return &CreateOrderResult{
		Order:        order,
		PaymentURL:   pref.InitPoint,
		PreferenceID: pref.ID,
	}, nil
}

// Get returns one order. Regular users can only see their own.
func (s *Service) Get(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, errors.New(errors.CodeNotFound, "order not found")
	}
	if !actor.IsAdmin() && order.UserID != actor.UserID {
		return nil, errors.New(errors.CodeForbidden, "access denied")
	}
	return order, nil
}

// List returns orders newest first. Admins see every order, regular users
// only their own.
func (s *Service) List(ctx context.Context, actor auth.Actor) ([]models.Order, error) {
	params := ListOrdersQuery{}
	if !actor.IsAdmin() {
		userID := actor.UserID
		params.UserID = &userID
	}
	out, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list orders")
	}
	return out, nil
}

// ApplyPaymentStatus maps a gateway payment status onto the order. Reapplying
// the same gateway status leaves the row untouched, which keeps redelivered
// notifications harmless.
func (s *Service) ApplyPaymentStatus(ctx context.Context, orderID uuid.UUID, gatewayStatus string) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, errors.New(errors.CodeNotFound, "order not found")
	}

	next := enums.OrderStatusFromPayment(gatewayStatus)
	if order.Status == next {
		return order, nil
	}

	order.Status = next
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "update order status")
	}

	logCtx := s.logger.WithOrderID(ctx, order.ID.String())
	logCtx = s.logger.WithField(logCtx, "status", string(next))
	s.logger.Info(logCtx, "payment status applied")
	return order, nil
}

// ApplyProviderStatus overwrites local fulfillment fields with the
// provider's view. Once an order is submitted the provider is authoritative.
func (s *Service) ApplyProviderStatus(ctx context.Context, order *models.Order, status provider.OrderStatus) error {
	if order == nil {
		return errors.New(errors.CodeInternal, "order is required")
	}
	ApplyProviderFields(order, status)
	if err := s.repo.Update(ctx, order); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "update order status")
	}
	return nil
}

// ApplyProviderFields copies the provider's status snapshot onto the order
// without persisting it. Fields the provider omitted keep their stored
// values.
func ApplyProviderFields(order *models.Order, status provider.OrderStatus) {
	if status.Status != "" {
		order.Status = enums.OrderStatus(status.Status)
	}
	if status.StartCount != nil {
		start := status.StartCount.Int()
		order.StartCount = &start
	}
	if status.Remains != nil {
		remains := status.Remains.Int()
		order.Remains = &remains
	}
}

// Repo exposes the underlying repository for collaborators that need
// lower-level access (submission, batch sync).
func (s *Service) Repo() Repository {
	return s.repo
}

func checkQuantityBounds(svc *models.Service, quantity int) error {
	if svc.MinQuantity != nil && quantity < *svc.MinQuantity {
		return errors.New(errors.CodeValidation, fmt.Sprintf("quantity below service minimum of %d", *svc.MinQuantity))
	}
	if svc.MaxQuantity != nil && quantity > *svc.MaxQuantity {
		return errors.New(errors.CodeValidation, fmt.Sprintf("quantity above service maximum of %d", *svc.MaxQuantity))
	}
	return nil
}

func computePricing(svc *models.Service, quantity int) (pricePaid, costToUs float64) {
	rate := decimal.NewFromFloat(svc.Rate)
	margin := decimal.NewFromFloat(svc.ProfitMargin)
	qty := decimal.NewFromInt(int64(quantity))

	costToUs, _ = rate.Mul(qty).Float64()
	pricePaid, _ = rate.Mul(decimal.NewFromInt(1).Add(margin)).Mul(qty).Float64()
	return pricePaid, costToUs
}
