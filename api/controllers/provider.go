package controllers

import (
	"context"
	"net/http"

	"github.com/influenciando/reseller-backend/api/responses"
	"github.com/influenciando/reseller-backend/pkg/logger"
	"github.com/influenciando/reseller-backend/pkg/provider"
)

type balanceClient interface {
	Balance(ctx context.Context) (*provider.Balance, error)
}

// ProviderBalance returns the reseller account balance at the fulfillment
// provider. Admin only.
func ProviderBalance(client balanceClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := client.Balance(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}
