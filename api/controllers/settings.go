package controllers

import (
	"context"
	"net/http"

	"github.com/influenciando/reseller-backend/api/responses"
	"github.com/influenciando/reseller-backend/api/validators"
	"github.com/influenciando/reseller-backend/pkg/db/models"
	"github.com/influenciando/reseller-backend/pkg/logger"
)

type settingsService interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Set(ctx context.Context, key, value string) (*models.Setting, error)
	List(ctx context.Context) ([]models.Setting, error)
}

type updateSettingInput struct {
	Value string `json:"value"`
}

// ListSettings returns every setting. Admin only.
func ListSettings(svc settingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetSetting returns one setting by key. Admin only.
func GetSetting(svc settingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := validators.ParseStringParam(r, "key")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setting, err := svc.Get(r.Context(), key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, setting)
	}
}

// PutSetting creates or overwrites one setting. Admin only.
func PutSetting(svc settingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := validators.ParseStringParam(r, "key")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input updateSettingInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setting, err := svc.Set(r.Context(), key, input.Value)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, setting)
	}
}
