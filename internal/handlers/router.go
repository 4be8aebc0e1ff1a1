package handlers

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nkiryanov/rewear/internal/handlers/middleware"
	"github.com/nkiryanov/rewear/internal/logger"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
	"github.com/nkiryanov/rewear/internal/service/item"
	"github.com/nkiryanov/rewear/internal/service/redemption"
	"github.com/nkiryanov/rewear/internal/service/swap"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Services struct {
	Auth       authService
	Users      userService
	Items      itemService
	Redemption redemptionService
	Swaps      swapService
	Health     healthChecker
}

type Config struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
}

func NewRouter(s Services, cfg Config, logger logger.Logger) http.Handler {
	withAuth := middleware.AuthMiddleware(s.Auth)

	api := http.NewServeMux()

	api.Handle("POST /auth/register", handleRegister(s.Auth, logger))
	api.Handle("POST /auth/login", handleLogin(s.Auth, logger))
	api.Handle("POST /auth/refresh", handleTokenRefresh(s.Auth, logger))

	api.Handle("GET /user/me", withAuth(handleUserMe()))
	api.Handle("GET /user/transactions", withAuth(handleListTransactions(s.Users, logger)))

	api.Handle("GET /items", handleListItems(s.Items, logger))
	api.Handle("GET /items/{id}", handleGetItem(s.Items, logger))
	api.Handle("POST /items", withAuth(handleCreateItem(s.Items, logger)))
	api.Handle("POST /items/{id}/redeem", withAuth(handleRedeem(s.Redemption, logger)))

	api.Handle("GET /swap-requests", withAuth(handleListSwaps(s.Swaps, logger)))
	api.Handle("POST /swap-requests", withAuth(handleProposeSwap(s.Swaps, logger)))
	api.Handle("GET /swap-requests/{id}", withAuth(handleGetSwap(s.Swaps, logger)))
	api.Handle("PUT /swap-requests/{id}/accept", withAuth(handleAcceptSwap(s.Swaps, logger)))
	api.Handle("PUT /swap-requests/{id}/decline", withAuth(handleDeclineSwap(s.Swaps, logger)))

	api.Handle("GET /health", handleHealth(s.Health, logger))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mds := []func(http.Handler) http.Handler{
		middleware.LoggerMiddleware(logger),
		chimw.Recoverer,
		middleware.CORSMiddleware(origins),
	}
	// Deadline reaches db calls, an overrunning transaction is rolled back
	if cfg.RequestTimeout > 0 {
		mds = append(mds, chimw.Timeout(cfg.RequestTimeout))
	}

	return chain(root, mds...)
}

type authService interface {
	// Register user with email, name and password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, email string, name string, password string) (models.TokenPair, error)

	// Login user with email and password
	// Has to return apperrors.ErrUserNotFound if user not found or password does not match
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found: has to return apperrors.ErrRefreshTokenNotFound
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Get refresh token from request
	GetRefreshString(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	ListTransactions(ctx context.Context, userID uuid.UUID, types ...string) ([]models.Transaction, error)
}

type itemService interface {
	Create(ctx context.Context, ownerID uuid.UUID, p item.CreateParams) (models.Item, error)
	Get(ctx context.Context, itemID uuid.UUID) (models.Item, error)
	List(ctx context.Context, filter repository.ItemFilter) ([]models.Item, error)
}

type redemptionService interface {
	Redeem(ctx context.Context, itemID uuid.UUID, buyerID uuid.UUID) (redemption.Redemption, error)
}

type swapService interface {
	Propose(ctx context.Context, p swap.ProposeParams) (models.SwapRequest, error)
	Accept(ctx context.Context, proposalID uuid.UUID, actorID uuid.UUID) (swap.Settlement, error)
	Decline(ctx context.Context, proposalID uuid.UUID, actorID uuid.UUID) (models.SwapRequest, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.SwapRequestDetails, error)
	Get(ctx context.Context, proposalID uuid.UUID, viewerID uuid.UUID) (models.SwapRequestDetails, error)
}

type healthChecker interface {
	Ping(ctx context.Context) error
}
