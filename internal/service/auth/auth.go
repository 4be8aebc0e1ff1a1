package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/models"
)

const (
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultRefreshCookieName = "refreshtoken"
)

var ErrNoCredentials = errors.New("no credentials in request")

type tokenManager interface {
	GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error)

	// Return refresh token and mark it used
	UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error)

	// Return id of user the valid access token was issued for
	ParseAccess(ctx context.Context, access string) (uuid.UUID, error)
}

type userService interface {
	CreateUser(ctx context.Context, email string, name string, password string) (models.User, error)
	Login(ctx context.Context, email string, password string) (models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

// Where tokens are put to and looked up in http messages
// Zero fields get defaults
type Config struct {
	AccessHeaderName  string
	AccessAuthScheme  string
	RefreshCookieName string
}

type AuthService struct {
	accessHeaderName  string
	accessAuthScheme  string
	refreshCookieName string

	tokens tokenManager
	users  userService
}

func NewService(cfg Config, tokens tokenManager, users userService) (*AuthService, error) {
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
		tokens:            tokens,
		users:             users,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, email string, name string, password string) (models.TokenPair, error) {
	user, err := s.users.CreateUser(ctx, email, name, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return pair, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	user, err := s.users.Login(ctx, email, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return pair, nil
}

// Exchange refresh token for a new pair; every refresh token works once
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	token, err := s.tokens.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.users.GetUserByID(ctx, token.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return pair, nil
}

// Access token goes to header, refresh token to http only cookie
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)

	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    pair.Refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(pair.Refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoCredentials
	}

	return cookie.Value, nil
}

// Authenticate request by access token and return the caller
func (s *AuthService) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	scheme, access, ok := strings.Cut(r.Header.Get(s.accessHeaderName), " ")
	if !ok || !strings.EqualFold(scheme, s.accessAuthScheme) || access == "" {
		return models.User{}, ErrNoCredentials
	}

	userID, err := s.tokens.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", apperrors.ErrNotAuthorized, err)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("token owner: %w", err)
	}

	return user, nil
}
