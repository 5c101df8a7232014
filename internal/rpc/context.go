package rpc

import (
	"context"

	"cleanbook/internal/models"
)

type callerKey struct{}

// WithCaller attaches the authenticated user. A nil user means anonymous.
func WithCaller(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, callerKey{}, user)
}

// Caller returns the authenticated user or nil.
func Caller(ctx context.Context) *models.User {
	user, _ := ctx.Value(callerKey{}).(*models.User)
	return user
}

// RequireAdmin must be the first statement of every admin-only handler.
func RequireAdmin(ctx context.Context) (*models.User, error) {
	user := Caller(ctx)
	if user == nil {
		return nil, Errorf(CodeUnauthenticated, "login required")
	}
	if !user.IsAdmin() {
		return nil, Errorf(CodeUnauthorized, "admin role required")
	}
	return user, nil
}
