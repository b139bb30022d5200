package middleware

import (
	"context"
	"net/http"

	"github.com/nkiryanov/eshop/internal/handlers/render"
	"github.com/nkiryanov/eshop/internal/handlers/userctx"
	"github.com/nkiryanov/eshop/internal/models"
)

type authService interface {
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware rejects requests without valid access token
// Authenticated user is available with userctx.FromContext
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.GetUserFromRequest(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Authentication credentials were not provided or are invalid", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), user)))
		})
	}
}
