package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/eshop/internal/apperrors"
	"github.com/nkiryanov/eshop/internal/handlers/render"
	"github.com/nkiryanov/eshop/internal/handlers/userctx"
	"github.com/nkiryanov/eshop/internal/logger"
	"github.com/nkiryanov/eshop/internal/models"
	"github.com/nkiryanov/eshop/internal/password"
	"github.com/nkiryanov/eshop/internal/service/user"
)

type accountResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

func newAccountResponse(u models.User) accountResponse {
	return accountResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

type tokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Write pair to header, cookie and body
func renderTokenPair(w http.ResponseWriter, as authService, pair models.TokenPair) {
	as.SetTokenPairToResponse(w, pair)
	render.JSON(w, tokenPairResponse{Access: pair.Access.Value, Refresh: pair.Refresh.Value})
}

func handleRegistration(userService userService, logger logger.Logger) http.Handler {
	type request struct {
		Email           string `json:"email" validate:"required,email,max=255"`
		FirstName       string `json:"first_name" validate:"required,max=150"`
		LastName        string `json:"last_name" validate:"required,max=150"`
		Password        string `json:"password" validate:"required,password"`
		ConfirmPassword string `json:"confirm_password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if data.Password != data.ConfirmPassword {
			render.FieldErrors(w, map[string]string{"confirm_password": "Those Passwords Don't Match."})
			return
		}

		u, err := userService.CreateUser(r.Context(), user.CreateUserParams{
			Email:     data.Email,
			FirstName: data.FirstName,
			LastName:  data.LastName,
			Password:  data.Password,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User with this credentials already exists.", http.StatusBadRequest)
			default:
				logger.Error("Registration failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, newAccountResponse(u), http.StatusCreated)
	})
}

func handleLogin(authService authService, logger logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "No active account found with the given credentials", http.StatusBadRequest)
			default:
				logger.Error("Login failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		renderTokenPair(w, authService, pair)
	})
}

// Refresh token is read from cookie first, then from {"refresh": "..."} body
func handleTokenRefresh(authService authService, logger logger.Logger) http.Handler {
	type request struct {
		Refresh string `json:"refresh"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := authService.GetRefreshString(r)
		if err != nil {
			// Empty body means there is no token at all
			var data request
			err = json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&data)
			if err != nil && !errors.Is(err, io.EOF) {
				render.DecodeError(w, err)
				return
			}
			refresh = data.Refresh
		}

		if refresh == "" {
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		pair, err := authService.RefreshPair(r.Context(), refresh)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrRefreshTokenExpired):
				render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrRefreshTokenIsUsed):
				render.ServiceError(w, "Refresh token already used", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrRefreshTokenNotFound), errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			default:
				logger.Error("Token refresh failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		renderTokenPair(w, authService, pair)
	})
}

func handleMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())
		render.JSON(w, newAccountResponse(u))
	})
}

func handleChangePassword(userService userService, logger logger.Logger) http.Handler {
	type request struct {
		OldPassword     string `json:"old_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required"`
		ConfirmPassword string `json:"confirm_password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = userService.ChangePassword(r.Context(), u, data.OldPassword, data.NewPassword, data.ConfirmPassword)

		var weakErr *password.WeakPasswordError
		switch {
		case err == nil:
			render.Detail(w, "You successfully changed your password.")
		case errors.Is(err, apperrors.ErrWrongPassword):
			render.FieldErrors(w, map[string]string{"old_password": "Old password is not correct"})
		case errors.As(err, &weakErr):
			render.FieldErrors(w, map[string]string{"new_password": weakErr.Error()})
		case errors.Is(err, apperrors.ErrPasswordMismatch):
			render.FieldErrors(w, map[string]string{"confirm_password": "Password fields didn't match."})
		default:
			logger.Error("Password change failed", "error", err, "user_id", u.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
