package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pressroomhq/printdesk-backend/api/middleware"
	"github.com/pressroomhq/printdesk-backend/internal/orders"
	pkgerrors "github.com/pressroomhq/printdesk-backend/pkg/errors"
	"github.com/pressroomhq/printdesk-backend/pkg/outbox"
	"github.com/pressroomhq/printdesk-backend/pkg/pagination"
)

func actorFrom(r *http.Request) (orders.Actor, error) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return orders.ActorFromClaims(claims), nil
}

func actorRefFrom(r *http.Request) (outbox.ActorRef, error) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return outbox.ActorRef{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return outbox.ActorRef{UserID: claims.UserID, Name: claims.Name, Role: claims.Role.String()}, nil
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

func paginationFrom(r *http.Request) pagination.Params {
	return pagination.Params{
		Limit:  queryInt(r, "limit"),
		Cursor: r.URL.Query().Get("cursor"),
	}
}

func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || value < 0 {
		return 0
	}
	return value
}
