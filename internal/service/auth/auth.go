package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/eshop/internal/models"
)

const (
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultRefreshCookieName = "refreshtoken"
)

var ErrNoCredentials = errors.New("no credentials provided")

type tokenManager interface {
	GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error)
	UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error)
	ParseAccess(ctx context.Context, access string) (uuid.UUID, error)
}

type userService interface {
	// Has to return apperrors.ErrUserNotFound if credentials are invalid
	Login(ctx context.Context, email string, password string) (models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type Config struct {
	// Header to read and write access token
	AccessHeaderName string

	// Scheme prefix of access header value, e.g. 'Bearer <token>'
	AccessAuthScheme string

	// Cookie to keep refresh token in
	RefreshCookieName string
}

// Auth service
type AuthService struct {
	accessHeaderName  string
	accessAuthScheme  string
	refreshCookieName string

	tokenManager tokenManager
	userService  userService
}

func NewService(cfg Config, tokenManager tokenManager, userService userService) (*AuthService, error) {
	setDefault := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefault(&cfg.AccessHeaderName, defaultAccessHeaderName)
	setDefault(&cfg.AccessAuthScheme, defaultAccessAuthScheme)
	setDefault(&cfg.RefreshCookieName, defaultRefreshCookieName)

	return &AuthService{
		accessHeaderName:  cfg.AccessHeaderName,
		accessAuthScheme:  cfg.AccessAuthScheme,
		refreshCookieName: cfg.RefreshCookieName,
		tokenManager:      tokenManager,
		userService:       userService,
	}, nil
}

// Login checks credentials and issues new token pair
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	user, err := s.userService.Login(ctx, email, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.IssuePair(ctx, user)
}

// IssuePair issues token pair for already authenticated user
func (s *AuthService) IssuePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	pair, err := s.tokenManager.GeneratePair(ctx, user)
	if err != nil {
		return pair, fmt.Errorf("token could not generated. Err: %w", err)
	}

	return pair, nil
}

// RefreshPair exchanges refresh token to the new pair
// Refresh token can be used only once
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	token, err := s.tokenManager.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.userService.GetUserByID(ctx, token.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.IssuePair(ctx, user)
}

// Set access token to header and refresh token to http-only cookie
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	http.SetCookie(w, s.refreshCookie(pair.Refresh, time.Now()))
}

// Same as SetTokenPairToResponse but for client requests
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.Header.Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	r.AddCookie(&http.Cookie{Name: s.refreshCookieName, Value: pair.Refresh.Value})
}

func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoCredentials
	}

	return cookie.Value, nil
}

// GetUserFromRequest authenticates request by access token
func (s *AuthService) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get(s.accessHeaderName)
	scheme, access, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, s.accessAuthScheme) || access == "" {
		return models.User{}, ErrNoCredentials
	}

	userID, err := s.tokenManager.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("token owner not found. Err: %w", err)
	}

	return user, nil
}

func (s *AuthService) refreshCookie(refresh models.IssuedToken, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    refresh.Value,
		Path:     "/",
		MaxAge:   int(refresh.ExpiresAt.Sub(now).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
