package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/influenciando/reseller-backend/api/responses"
	"github.com/influenciando/reseller-backend/api/validators"
	"github.com/influenciando/reseller-backend/internal/catalog"
	"github.com/influenciando/reseller-backend/pkg/db/models"
	"github.com/influenciando/reseller-backend/pkg/logger"
)

type catalogService interface {
	Sync(ctx context.Context) (*catalog.SyncResult, error)
	Update(ctx context.Context, serviceID uuid.UUID, input catalog.UpdateServiceInput) (*models.Service, error)
	Get(ctx context.Context, serviceID uuid.UUID) (*models.Service, error)
	List(ctx context.Context, category string) ([]models.Service, error)
	Categories(ctx context.Context) ([]string, error)
}

// ListServices returns the catalog, optionally filtered by category.
func ListServices(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := strings.TrimSpace(r.URL.Query().Get("category"))

		list, err := svc.List(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetService returns one catalog entry.
func GetService(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParseUUIDParam(r, "serviceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Get(r.Context(), serviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// ServiceCategories returns the distinct categories in the catalog.
func ServiceCategories(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// SyncServices mirrors the provider's service list into the catalog. Admin
// only.
func SyncServices(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Sync(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateService applies admin edits to one catalog entry. Admin only.
func UpdateService(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParseUUIDParam(r, "serviceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input catalog.UpdateServiceInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Update(r.Context(), serviceID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}
