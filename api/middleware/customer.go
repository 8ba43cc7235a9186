package middleware

import (
	"net/http"

	"github.com/hifideliveryeats/cartsync/api/responses"
	"github.com/hifideliveryeats/cartsync/api/validators"
	"github.com/hifideliveryeats/cartsync/pkg/cartapi"
	pkgerrors "github.com/hifideliveryeats/cartsync/pkg/errors"
	"github.com/hifideliveryeats/cartsync/pkg/logger"
)

const maxCustomerIDLen = 64

// CustomerContext binds the customer named by the X-Customer-Id header to the
// request and rejects requests without one.
func CustomerContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			customerID := validators.SanitizeString(r.Header.Get(cartapi.CustomerHeader), maxCustomerIDLen)
			if customerID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "customer context missing"))
				return
			}
			ctx := WithCustomerID(r.Context(), customerID)
			if logg != nil {
				ctx = logg.WithCustomerID(ctx, customerID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
