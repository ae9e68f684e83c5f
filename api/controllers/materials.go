package controllers

import (
	"net/http"

	"github.com/pressroomhq/printdesk-backend/api/responses"
	"github.com/pressroomhq/printdesk-backend/internal/inventory"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
)

func MaterialList(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		materials, err := svc.ListMaterials(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, materials)
	}
}
