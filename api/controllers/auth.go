package controllers

import (
	"context"
	"net/http"

	"github.com/influenciando/reseller-backend/api/middleware"
	"github.com/influenciando/reseller-backend/api/responses"
	"github.com/influenciando/reseller-backend/api/validators"
	"github.com/influenciando/reseller-backend/internal/users"
	"github.com/influenciando/reseller-backend/pkg/auth"
	"github.com/influenciando/reseller-backend/pkg/db/models"
	pkgerrors "github.com/influenciando/reseller-backend/pkg/errors"
	"github.com/influenciando/reseller-backend/pkg/logger"
)

type userService interface {
	Authenticate(ctx context.Context, input users.LoginInput) (*users.LoginResult, error)
	Create(ctx context.Context, input users.CreateUserInput) (*models.User, error)
	Get(ctx context.Context, actor auth.Actor) (*models.User, error)
}

// Login exchanges credentials for a bearer token.
func Login(svc userService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input users.LoginInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Authenticate(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CreateUser registers a new panel account. Admin only.
func CreateUser(svc userService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input users.CreateUserInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// Profile returns the authenticated caller's account.
func Profile(svc userService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		user, err := svc.Get(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
