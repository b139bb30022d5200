// Package userctx keeps authenticated account in request context.
package userctx

import (
	"context"

	"github.com/nkiryanov/eshop/internal/models"
)

type userKey struct{}

func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromContext returns false for anonymous requests
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey{}).(models.User)
	return u, ok
}
