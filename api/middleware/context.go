package middleware

import (
	"context"

	"github.com/lexorahq/lexora-backend/pkg/db/models"
)

type contextKey string

const ctxUser contextKey = "authenticated_user"

// UserFromContext returns the authenticated user seeded by the Auth
// middleware, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	if ctx == nil {
		return nil
	}
	if user, ok := ctx.Value(ctxUser).(*models.User); ok {
		return user
	}
	return nil
}

// WithUser injects the authenticated user into the context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}
