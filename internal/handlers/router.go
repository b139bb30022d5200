package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/eshop/internal/handlers/middleware"
	"github.com/nkiryanov/eshop/internal/logger"
	"github.com/nkiryanov/eshop/internal/models"
	"github.com/nkiryanov/eshop/internal/service/user"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	resetService resetService,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)

	accounts := http.NewServeMux()

	accounts.Handle("POST /registration/", handleRegistration(userService, logger))
	accounts.Handle("POST /login/", handleLogin(authService, logger))
	accounts.Handle("POST /token/refresh/", handleTokenRefresh(authService, logger))
	accounts.Handle("GET /me/", withAuth(handleMe()))
	accounts.Handle("POST /change-password/", withAuth(handleChangePassword(userService, logger)))

	accounts.Handle("POST /reset-password/", handleResetRequest(resetService, logger))
	accounts.Handle("POST /reset-password/verify/", handleResetVerify(resetService, authService, logger))
	accounts.Handle("POST /reset-password/confirm/", withAuth(handleResetConfirm(resetService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/accounts/", http.StripPrefix("/api/accounts", accounts))

	handler := chain(root,
		middleware.RecoverMiddleware(logger),
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Login user with email and password
	// Has to return apperrors.ErrUserNotFound if credentials are invalid
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found: has to return apperrors.ErrRefreshTokenNotFound
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Get refresh token from request cookie
	GetRefreshString(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	CreateUser(ctx context.Context, params user.CreateUserParams) (models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	ChangePassword(ctx context.Context, user models.User, oldPassword, newPassword, confirmPassword string) error
}

type resetService interface {
	RequestReset(ctx context.Context, email string) error
	VerifyReset(ctx context.Context, code string) (models.TokenPair, error)
	ConfirmNewPassword(ctx context.Context, user models.User, newPassword string, confirmPassword string) error
}
