package controllers

import (
	"net/http"

	"github.com/pressroomhq/printdesk-backend/api/responses"
	"github.com/pressroomhq/printdesk-backend/api/validators"
	"github.com/pressroomhq/printdesk-backend/internal/woocommerce"
	pkgerrors "github.com/pressroomhq/printdesk-backend/pkg/errors"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
)

type importRequest struct {
	OrderNumber string `json:"order_number" validate:"required,max=64"`
}

// WooCommerceImport pulls one remote order into the dashboard by number.
func WooCommerceImport(svc *woocommerce.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "woocommerce is not configured"))
			return
		}

		actor, err := actorRefFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req importRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Import(r.Context(), actor, req.OrderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
