package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nkiryanov/eshop/internal/apperrors"
	"github.com/nkiryanov/eshop/internal/models"
	"github.com/nkiryanov/eshop/internal/password"
	"github.com/nkiryanov/eshop/internal/repository"
)

type CreateUserParams struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

type UserService struct {
	hasher  PasswordHasher
	storage repository.Storage

	// Hash compared against when user is not found,
	// so login takes the same time for existing and not existing users
	dummyHash     string
	dummyHashOnce sync.Once
}

func NewService(hasher PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = DefaultHasher
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
	}
}

// CreateUser registers new account
// Password has to satisfy password policy
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	var user models.User

	if err := password.Validate(params.Password); err != nil {
		return user, err
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err = s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Email:          strings.TrimSpace(params.Email),
		FirstName:      strings.TrimSpace(params.FirstName),
		LastName:       strings.TrimSpace(params.LastName),
		HashedPassword: hash,
	})
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

// Login returns user if credentials are valid
// Has to return apperrors.ErrUserNotFound either user not exists or password is wrong
func (s *UserService) Login(ctx context.Context, email string, pwd string) (models.User, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)

	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.getDummyHash(), pwd)
		return models.User{}, apperrors.ErrUserNotFound
	case err != nil:
		return models.User{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, pwd); err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return user, fmt.Errorf("can't get user. Err: %w", err)
	}

	return user, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (models.User, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		return user, fmt.Errorf("can't find user. Err: %w", err)
	}

	return user, nil
}

// SetPassword hashes raw password and persists it
// It does not check password policy, callers do
func (s *UserService) SetPassword(ctx context.Context, user models.User, raw string) error {
	hash, err := s.hasher.Hash(raw)
	if err != nil {
		return fmt.Errorf("can't use this as password, Err: %w", err)
	}

	err = s.storage.User().SetPasswordHash(ctx, user.ID, hash)
	if err != nil {
		return fmt.Errorf("can't set password. Err: %w", err)
	}

	return nil
}

// ChangePassword replaces password of authenticated user
// Errors:
//   - apperrors.ErrWrongPassword if old password does not match
//   - apperrors.ErrPasswordMismatch if new password and its confirmation differ
//   - *password.WeakPasswordError if new password violates policy
func (s *UserService) ChangePassword(ctx context.Context, user models.User, oldPassword, newPassword, confirmPassword string) error {
	// Read fresh hash, user from request context may be outdated
	current, err := s.storage.User().GetUserByID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("can't get user. Err: %w", err)
	}

	if err := s.hasher.Compare(current.HashedPassword, oldPassword); err != nil {
		return apperrors.ErrWrongPassword
	}

	if newPassword != confirmPassword {
		return apperrors.ErrPasswordMismatch
	}

	if err := password.Validate(newPassword); err != nil {
		return err
	}

	return s.SetPassword(ctx, current, newPassword)
}

func (s *UserService) getDummyHash() string {
	s.dummyHashOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}
