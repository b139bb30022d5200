package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrWrongPassword     = errors.New("password is not correct")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrUnknownAccount       = errors.New("user with this email is not registered")
	ErrInvalidOrExpiredCode = errors.New("otp is wrong or expired")
	ErrWeakPassword         = errors.New("password is too weak")
	ErrPasswordMismatch     = errors.New("passwords are not matched")
	ErrNotifierDelivery     = errors.New("notification delivery failed")

	ErrCodeNotFound = errors.New("code not found")
)
