package middleware

import (
	"context"

	"github.com/Dan9191/worklog-service/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity injects the authenticated identity into the context
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the identity set by AuthMiddleware
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(models.Identity)
	return identity, ok
}
