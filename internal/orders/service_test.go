package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/influenciando/reseller-backend/pkg/auth"
	"github.com/influenciando/reseller-backend/pkg/db/models"
	"github.com/influenciando/reseller-backend/pkg/enums"
	pkgerrors "github.com/influenciando/reseller-backend/pkg/errors"
	"github.com/influenciando/reseller-backend/pkg/logger"
	"github.com/influenciando/reseller-backend/pkg/mercadopago"
	"github.com/influenciando/reseller-backend/pkg/provider"
)

type stubRepo struct {
	orders       map[uuid.UUID]*models.Order
	created      []*models.Order
	updates      int
	listedParams *ListOrdersQuery
}

func newStubRepo() *stubRepo {
	return &stubRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.created = append(s.created, order)
	s.orders[order.ID] = order
	return nil
}

func (s *stubRepo) Update(ctx context.Context, order *models.Order) error {
	s.updates++
	s.orders[order.ID] = order
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.orders[id], nil
}

func (s *stubRepo) List(ctx context.Context, params ListOrdersQuery) ([]models.Order, error) {
	s.listedParams = &params
	return nil, nil
}

func (s *stubRepo) ListActive(ctx context.Context) ([]models.Order, error) {
	return nil, nil
}

func (s *stubRepo) MarkSubmitted(ctx context.Context, id uuid.UUID, providerOrderID int64) (bool, error) {
	return false, nil
}

type stubCatalog struct {
	services map[uuid.UUID]*models.Service
}

func (s *stubCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return s.services[id], nil
}

type stubGateway struct {
	lastParams mercadopago.PreferenceParams
	err        error
}

func (s *stubGateway) CreatePreference(ctx context.Context, params mercadopago.PreferenceParams) (*mercadopago.Preference, error) {
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}
	return &mercadopago.Preference{ID: "pref-1", InitPoint: "https://checkout.example/pref-1"}, nil
}

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T, repo Repository, catalog ServiceFinder, gateway PaymentGateway) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Catalog: catalog,
		Gateway: gateway,
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	return svc
}

func TestCreateFreezesPricing(t *testing.T) {
	svcID := uuid.New()
	repo := newStubRepo()
	catalog := &stubCatalog{services: map[uuid.UUID]*models.Service{
		svcID: {ID: svcID, Name: "Followers", Rate: 0.5, ProfitMargin: 0.2, MinQuantity: intPtr(10), MaxQuantity: intPtr(10000)},
	}}
	gateway := &stubGateway{}
	svc := newTestService(t, repo, catalog, gateway)

	actor := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	result, err := svc.Create(context.Background(), actor, CreateOrderInput{
		ServiceID: svcID,
		Link:      "https://instagram.com/someone",
		Quantity:  100,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPendingPayment, result.Order.Status)
	assert.InDelta(t, 60.0, result.Order.PricePaid, 1e-9)
	assert.InDelta(t, 50.0, result.Order.CostToUs, 1e-9)
	assert.Equal(t, actor.UserID, result.Order.UserID)
	assert.Equal(t, "https://checkout.example/pref-1", result.PaymentURL)
	assert.Equal(t, result.Order.ID.String(), gateway.lastParams.ExternalReference)
	assert.InDelta(t, 60.0, gateway.lastParams.UnitPrice, 1e-9)
}

func TestCreateUnknownService(t *testing.T) {
	svc := newTestService(t, newStubRepo(), &stubCatalog{services: map[uuid.UUID]*models.Service{}}, &stubGateway{})

	_, err := svc.Create(context.Background(), auth.Actor{UserID: uuid.New()}, CreateOrderInput{
		ServiceID: uuid.New(),
		Link:      "https://instagram.com/someone",
		Quantity:  100,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCreateQuantityOutOfBounds(t *testing.T) {
	svcID := uuid.New()
	catalog := &stubCatalog{services: map[uuid.UUID]*models.Service{
		svcID: {ID: svcID, Rate: 0.5, ProfitMargin: 0.2, MinQuantity: intPtr(100), MaxQuantity: intPtr(1000)},
	}}
	svc := newTestService(t, newStubRepo(), catalog, &stubGateway{})
	actor := auth.Actor{UserID: uuid.New()}

	_, err := svc.Create(context.Background(), actor, CreateOrderInput{ServiceID: svcID, Link: "x", Quantity: 50})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), actor, CreateOrderInput{ServiceID: svcID, Link: "x", Quantity: 5000})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestApplyPaymentStatusMapping(t *testing.T) {
	cases := map[string]enums.OrderStatus{
		"approved":   enums.OrderStatusPaid,
		"rejected":   enums.OrderStatusPaymentRejected,
		"cancelled":  enums.OrderStatusPaymentCancelled,
		"pending":    enums.OrderStatusPendingPayment,
		"in_process": enums.OrderStatusPaymentProcessing,
		"refunded":   enums.OrderStatusRefunded,
		"charged":    enums.OrderStatus("Payment charged"),
	}

	for gatewayStatus, want := range cases {
		repo := newStubRepo()
		order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPaymentProcessing}
		repo.orders[order.ID] = order
		svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{})

		updated, err := svc.ApplyPaymentStatus(context.Background(), order.ID, gatewayStatus)
		require.NoError(t, err, gatewayStatus)
		assert.Equal(t, want, updated.Status, gatewayStatus)
	}
}

func TestApplyPaymentStatusIdempotent(t *testing.T) {
	repo := newStubRepo()
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPendingPayment}
	repo.orders[order.ID] = order
	svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{})

	first, err := svc.ApplyPaymentStatus(context.Background(), order.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, first.Status)
	assert.Equal(t, 1, repo.updates)

	second, err := svc.ApplyPaymentStatus(context.Background(), order.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, second.Status)
	assert.Equal(t, 1, repo.updates, "reapplying the same status must not write")
}

func TestApplyPaymentStatusUnknownOrder(t *testing.T) {
	svc := newTestService(t, newStubRepo(), &stubCatalog{}, &stubGateway{})
	_, err := svc.ApplyPaymentStatus(context.Background(), uuid.New(), "approved")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestGetEnforcesOwnership(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	order := &models.Order{ID: uuid.New(), UserID: owner}
	repo.orders[order.ID] = order
	svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{})

	_, err := svc.Get(context.Background(), auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	got, err := svc.Get(context.Background(), auth.Actor{UserID: owner, Role: enums.UserRoleUser}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	got, err = svc.Get(context.Background(), auth.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestListScopesByRole(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubCatalog{}, &stubGateway{})

	userID := uuid.New()
	_, err := svc.List(context.Background(), auth.Actor{UserID: userID, Role: enums.UserRoleUser})
	require.NoError(t, err)
	require.NotNil(t, repo.listedParams.UserID)
	assert.Equal(t, userID, *repo.listedParams.UserID)

	_, err = svc.List(context.Background(), auth.Actor{UserID: userID, Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	assert.Nil(t, repo.listedParams.UserID)
}

func flexIntPtr(v int64) *provider.FlexInt {
	f := provider.FlexInt(v)
	return &f
}

func TestApplyProviderFieldsOverwrites(t *testing.T) {
	order := &models.Order{Status: enums.OrderStatusProcessing}
	ApplyProviderFields(order, provider.OrderStatus{
		Status:     "In progress",
		StartCount: flexIntPtr(1500),
		Remains:    flexIntPtr(250),
	})

	assert.Equal(t, enums.OrderStatusInProgress, order.Status)
	require.NotNil(t, order.StartCount)
	assert.Equal(t, 1500, *order.StartCount)
	require.NotNil(t, order.Remains)
	assert.Equal(t, 250, *order.Remains)
}

func TestApplyProviderFieldsKeepsOmittedCounts(t *testing.T) {
	start := 1500
	remains := 250
	order := &models.Order{
		Status:     enums.OrderStatusInProgress,
		StartCount: &start,
		Remains:    &remains,
	}
	ApplyProviderFields(order, provider.OrderStatus{Status: "Partial"})

	assert.Equal(t, enums.OrderStatusPartial, order.Status)
	require.NotNil(t, order.StartCount)
	assert.Equal(t, 1500, *order.StartCount)
	require.NotNil(t, order.Remains)
	assert.Equal(t, 250, *order.Remains)
}
