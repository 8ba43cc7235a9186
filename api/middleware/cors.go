package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/hifideliveryeats/cartsync/pkg/cartapi"
)

// CORS lets browser pages on the listed origins call the cart and menu
// routes. An empty list disables cross-origin access.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", cartapi.CustomerHeader, cartapi.RequestIDHeader},
		ExposedHeaders: []string{cartapi.RequestIDHeader},
		MaxAge:         300,
	}).Handler
}
