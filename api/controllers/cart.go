package controllers

import (
	"net/http"

	"github.com/hifideliveryeats/cartsync/api/middleware"
	"github.com/hifideliveryeats/cartsync/api/responses"
	"github.com/hifideliveryeats/cartsync/api/validators"
	cartsvc "github.com/hifideliveryeats/cartsync/internal/cart"
	pkgerrors "github.com/hifideliveryeats/cartsync/pkg/errors"
	"github.com/hifideliveryeats/cartsync/pkg/logger"
	"github.com/hifideliveryeats/cartsync/pkg/types"
)

// CartFetch returns the customer's stored cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		lines, err := svc.GetCart(r.Context(), middleware.CustomerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, lines)
	}
}

// CartReplace overwrites the customer's cart with the posted items and
// responds with the canonical list.
func CartReplace(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload types.CartWriteRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.ReplaceCart(r.Context(), middleware.CustomerIDFromContext(r.Context()), payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithField(r.Context(), "lines", len(lines)), "cart.replaced")
		}
		responses.WriteSuccess(w, lines)
	}
}
