package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/eshop/internal/apperrors"
	"github.com/nkiryanov/eshop/internal/handlers/render"
	"github.com/nkiryanov/eshop/internal/handlers/userctx"
	"github.com/nkiryanov/eshop/internal/logger"
	"github.com/nkiryanov/eshop/internal/password"
)

func handleResetRequest(resetService resetService, logger logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = resetService.RequestReset(r.Context(), data.Email)
		switch {
		case err == nil:
			render.Detail(w, "We Have Sent You Message To your email")
		case errors.Is(err, apperrors.ErrUnknownAccount):
			render.ServiceError(w, "user with this email is not registered", http.StatusBadRequest)
		default:
			logger.Error("Password reset request failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// Verified code is exchanged to the token pair, the client confirms new password with it
func handleResetVerify(resetService resetService, authService authService, logger logger.Logger) http.Handler {
	type request struct {
		OTP string `json:"OTP" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := resetService.VerifyReset(r.Context(), data.OTP)
		switch {
		case err == nil:
			renderTokenPair(w, authService, pair)
		case errors.Is(err, apperrors.ErrInvalidOrExpiredCode):
			render.ServiceError(w, "otp is wrong or expired", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrUnknownAccount):
			render.ServiceError(w, "User does not exist.", http.StatusBadRequest)
		default:
			logger.Error("Password reset verification failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleResetConfirm(resetService resetService, logger logger.Logger) http.Handler {
	type request struct {
		NewPassword        string `json:"new_password" validate:"required"`
		NewPasswordConfirm string `json:"new_password_confirm" validate:"required"`
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

		err = resetService.ConfirmNewPassword(r.Context(), u, data.NewPassword, data.NewPasswordConfirm)

		var weakErr *password.WeakPasswordError
		switch {
		case err == nil:
			render.Detail(w, "You successfully changed your password!")
		case errors.As(err, &weakErr):
			render.FieldErrors(w, map[string]string{"new_password": weakErr.Error()})
		case errors.Is(err, apperrors.ErrPasswordMismatch):
			render.FieldErrors(w, map[string]string{"new_password_confirm": "Passwords are not matched."})
		default:
			logger.Error("Password reset confirmation failed", "error", err, "user_id", u.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
