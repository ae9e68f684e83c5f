package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pressroomhq/printdesk-backend/api/responses"
	"github.com/pressroomhq/printdesk-backend/api/validators"
	"github.com/pressroomhq/printdesk-backend/pkg/auth"
	"github.com/pressroomhq/printdesk-backend/pkg/config"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	pkgerrors "github.com/pressroomhq/printdesk-backend/pkg/errors"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
)

type devTokenRequest struct {
	UserID             string `json:"user_id" validate:"omitempty,uuid"`
	Name               string `json:"name" validate:"required,max=200"`
	Role               string `json:"role" validate:"required"`
	Department         string `json:"department" validate:"omitempty,max=100"`
	ProductionSubstage string `json:"production_substage" validate:"omitempty,max=100"`
	IsAdmin            bool   `json:"is_admin"`
}

type devTokenResponse struct {
	Token string `json:"token"`
}

// DevToken mints an access token for a posted profile. Identity lives in the
// main site; this endpoint exists so the dashboard can be exercised without
// it, and the router only mounts it outside prod.
func DevToken(cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req devTokenRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		userID := uuid.New()
		if req.UserID != "" {
			userID, err = uuid.Parse(req.UserID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid user_id"))
				return
			}
		}

		token, err := auth.SignAccessToken(cfg, auth.Claims{
			UserID:             userID,
			Name:               req.Name,
			Role:               role,
			Department:         req.Department,
			ProductionSubstage: req.ProductionSubstage,
			IsAdmin:            req.IsAdmin,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token"))
			return
		}
		responses.WriteSuccess(w, devTokenResponse{Token: token})
	}
}
