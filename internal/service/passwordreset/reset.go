// Package passwordreset implements password recovery by one-time codes.
//
// The flow is:
//  1. RequestReset sends a code to the account email
//  2. VerifyReset exchanges the code to a token pair
//  3. ConfirmNewPassword sets new password for the authenticated account
package passwordreset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nkiryanov/eshop/internal/apperrors"
	"github.com/nkiryanov/eshop/internal/logger"
	"github.com/nkiryanov/eshop/internal/mailer"
	"github.com/nkiryanov/eshop/internal/models"
	"github.com/nkiryanov/eshop/internal/password"
)

const (
	DefaultCodeTTL = 10 * time.Minute

	MailSubject = "Es-Shop Password Reset for your account"

	cacheKeyPrefix = "reset:"
)

type identityStore interface {
	// Has to return apperrors.ErrUserNotFound if there is no such account
	FindByEmail(ctx context.Context, email string) (models.User, error)
	SetPassword(ctx context.Context, user models.User, raw string) error
}

type CodeCache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Both have to return apperrors.ErrCodeNotFound for missing or expired key
	Get(ctx context.Context, key string) (string, error)
	Take(ctx context.Context, key string) (string, error)
}

type Notifier interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type TokenIssuer interface {
	IssuePair(ctx context.Context, user models.User) (models.TokenPair, error)
}

type Config struct {
	// How long the code is valid, DefaultCodeTTL if zero
	CodeTTL time.Duration

	// Allow to verify the same code several times until it expires
	// By default code is deleted on successful lookup
	ReusableCodes bool
}

type Service struct {
	codeTTL       time.Duration
	reusableCodes bool

	identities identityStore
	cache      CodeCache
	notifier   Notifier
	issuer     TokenIssuer
	logger     logger.Logger

	// replaced in tests
	generateCode func() (string, error)
}

func NewService(cfg Config, identities identityStore, cache CodeCache, notifier Notifier, issuer TokenIssuer, l logger.Logger) *Service {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = DefaultCodeTTL
	}

	return &Service{
		codeTTL:       cfg.CodeTTL,
		reusableCodes: cfg.ReusableCodes,
		identities:    identities,
		cache:         cache,
		notifier:      notifier,
		issuer:        issuer,
		logger:        l.WithGroup("passwordreset"),
		generateCode:  generateCode,
	}
}

// RequestReset issues code for the account and sends it to the account email
// Returns apperrors.ErrUnknownAccount if there is no such account
// Delivery happens in background, its failures are not returned
func (s *Service) RequestReset(ctx context.Context, email string) error {
	user, err := s.identities.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return apperrors.ErrUnknownAccount
	case err != nil:
		return fmt.Errorf("can't find account. Err: %w", err)
	}

	code, err := s.generateCode()
	if err != nil {
		return fmt.Errorf("can't generate code. Err: %w", err)
	}

	err = s.cache.Set(ctx, cacheKeyPrefix+code, user.Email, s.codeTTL)
	if err != nil {
		return fmt.Errorf("can't store code. Err: %w", err)
	}

	err = s.notifier.Send(ctx, mailer.Message{
		To:      []string{user.Email},
		Subject: MailSubject,
		Body:    mailBody(code, s.codeTTL),
	})
	if err != nil {
		s.logger.Error("Reset code is not queued for delivery", "error", err, "user_id", user.ID)
		return nil
	}

	s.logger.Info("Reset code issued", "user_id", user.ID)
	return nil
}

// VerifyReset exchanges code to token pair of the account the code was issued for
// Errors:
//   - apperrors.ErrInvalidOrExpiredCode if code is unknown, expired or already used
//   - apperrors.ErrUnknownAccount if the account was deleted after code was issued
func (s *Service) VerifyReset(ctx context.Context, code string) (models.TokenPair, error) {
	var pair models.TokenPair

	code = normalizeCode(code)
	if code == "" {
		return pair, apperrors.ErrInvalidOrExpiredCode
	}

	lookup := s.cache.Take
	if s.reusableCodes {
		lookup = s.cache.Get
	}

	email, err := lookup(ctx, cacheKeyPrefix+code)
	switch {
	case errors.Is(err, apperrors.ErrCodeNotFound):
		return pair, apperrors.ErrInvalidOrExpiredCode
	case err != nil:
		return pair, fmt.Errorf("can't read code. Err: %w", err)
	}

	user, err := s.identities.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return pair, apperrors.ErrUnknownAccount
	case err != nil:
		return pair, fmt.Errorf("can't find account. Err: %w", err)
	}

	pair, err = s.issuer.IssuePair(ctx, user)
	if err != nil {
		return pair, fmt.Errorf("can't issue tokens. Err: %w", err)
	}

	s.logger.Info("Reset code verified", "user_id", user.ID)
	return pair, nil
}

// ConfirmNewPassword sets new password for the account
// Errors:
//   - apperrors.ErrPasswordMismatch if confirmation differs, whatever the passwords are
//   - *password.WeakPasswordError (apperrors.ErrWeakPassword) if password violates policy
func (s *Service) ConfirmNewPassword(ctx context.Context, user models.User, newPassword string, confirmPassword string) error {
	if newPassword != confirmPassword {
		return apperrors.ErrPasswordMismatch
	}

	if err := password.Validate(newPassword); err != nil {
		return err
	}

	if err := s.identities.SetPassword(ctx, user, newPassword); err != nil {
		return fmt.Errorf("can't set password. Err: %w", err)
	}

	s.logger.Info("Password reset confirmed", "user_id", user.ID)
	return nil
}

func mailBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your Password Reset Code Is: %s (Code is valid for %d minutes)", code, int(ttl.Minutes()))
}
