package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkiryanov/rewear/internal/db"
	"github.com/nkiryanov/rewear/internal/handlers"
	"github.com/nkiryanov/rewear/internal/logger"
	"github.com/nkiryanov/rewear/internal/repository/postgres"
	"github.com/nkiryanov/rewear/internal/service/auth"
	"github.com/nkiryanov/rewear/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/rewear/internal/service/item"
	"github.com/nkiryanov/rewear/internal/service/redemption"
	"github.com/nkiryanov/rewear/internal/service/swap"
	"github.com/nkiryanov/rewear/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
	pool   *pgxpool.Pool
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage.Refresh())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	userService := user.NewService(user.DefaultHasher, storage, user.WithInitialPoints(c.InitialPoints))
	authService, err := auth.NewService(auth.Config{}, tokenManager, userService)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	router := handlers.NewRouter(
		handlers.Services{
			Auth:       authService,
			Users:      userService,
			Items:      item.NewService(storage),
			Redemption: redemption.NewService(storage, logger.WithGroup("redemption")),
			Swaps:      swap.NewService(storage, logger.WithGroup("swap")),
			Health:     pool,
		},
		handlers.Config{
			RequestTimeout: c.RequestTimeout,
			CORSOrigins:    c.CORSOrigins,
		},
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    router,
		logger:     logger,
		pool:       pool,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
// Database pool is closed when server stops
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.pool.Close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
