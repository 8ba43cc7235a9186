package controllers

import (
	"net/http"

	"github.com/hifideliveryeats/cartsync/api/responses"
	"github.com/hifideliveryeats/cartsync/internal/menu"
	pkgerrors "github.com/hifideliveryeats/cartsync/pkg/errors"
	"github.com/hifideliveryeats/cartsync/pkg/logger"
)

// MenuItems lists the in-stock catalog.
func MenuItems(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		items, err := svc.ListCatalog(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
