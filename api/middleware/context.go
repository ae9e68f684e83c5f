package middleware

import (
	"context"

	"github.com/pressroomhq/printdesk-backend/pkg/auth"
)

type contextKey string

const ctxClaims contextKey = "claims"

// ClaimsFromContext returns the authenticated profile seeded by Auth, or nil.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	if ctx == nil {
		return nil
	}
	if claims, ok := ctx.Value(ctxClaims).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// WithClaims injects an authenticated profile. Used by handler tests.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClaims, claims)
}
