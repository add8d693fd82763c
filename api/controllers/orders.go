package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/influenciando/reseller-backend/api/middleware"
	"github.com/influenciando/reseller-backend/api/responses"
	"github.com/influenciando/reseller-backend/api/validators"
	"github.com/influenciando/reseller-backend/internal/orders"
	"github.com/influenciando/reseller-backend/internal/reconcile"
	"github.com/influenciando/reseller-backend/pkg/auth"
	"github.com/influenciando/reseller-backend/pkg/db/models"
	pkgerrors "github.com/influenciando/reseller-backend/pkg/errors"
	"github.com/influenciando/reseller-backend/pkg/logger"
)

type orderService interface {
	Create(ctx context.Context, actor auth.Actor, input orders.CreateOrderInput) (*orders.CreateOrderResult, error)
	List(ctx context.Context, actor auth.Actor) ([]models.Order, error)
}

type reconcileService interface {
	SubmitOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	SyncOne(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*models.Order, error)
	SyncAll(ctx context.Context) (*reconcile.SyncAllResult, error)
	RequestRefill(ctx context.Context, orderID uuid.UUID) (*reconcile.RefillResult, error)
}

// ListOrders returns the caller's orders, or every order for an admin.
func ListOrders(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		list, err := svc.List(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CreateOrder creates an order with frozen pricing and opens its checkout.
func CreateOrder(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var input orders.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// OrderStatus returns one order, refreshed from the provider when eligible.
func OrderStatus(svc reconcileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SyncOne(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ProcessOrder submits a paid order to the fulfillment provider. Admin only.
func ProcessOrder(svc reconcileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SubmitOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// RefillOrder asks the provider to refill a submitted order. Admin only.
func RefillOrder(svc reconcileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RequestRefill(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SyncOrders reconciles every active order against the provider. Admin only.
func SyncOrders(svc reconcileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.SyncAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
