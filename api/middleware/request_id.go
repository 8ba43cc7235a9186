package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hifideliveryeats/cartsync/api/validators"
	"github.com/hifideliveryeats/cartsync/pkg/cartapi"
	"github.com/hifideliveryeats/cartsync/pkg/logger"
)

const maxRequestIDLen = 64

// RequestID echoes the caller's X-Request-Id, or mints one, and tags the
// request logger with it.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := validators.SanitizeString(r.Header.Get(cartapi.RequestIDHeader), maxRequestIDLen)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(cartapi.RequestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
