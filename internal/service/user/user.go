package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
)

// Points every new user starts with
const DefaultInitialPoints int64 = 100

type UserService struct {
	hasher        PasswordHasher
	storage       repository.Storage
	initialPoints int64
}

type Option func(*UserService)

// Override points granted on registration
func WithInitialPoints(points int64) Option {
	return func(s *UserService) {
		s.initialPoints = points
	}
}

func NewService(hasher PasswordHasher, storage repository.Storage, opts ...Option) *UserService {
	if hasher == nil {
		hasher = DefaultHasher
	}

	s := &UserService{
		hasher:        hasher,
		storage:       storage,
		initialPoints: DefaultInitialPoints,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create user with initial points grant
// The grant is the starting balance, not a transaction
func (s *UserService) CreateUser(ctx context.Context, email string, name string, password string) (models.User, error) {
	if password == "" {
		return models.User{}, fmt.Errorf("empty password: %w", apperrors.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Email:          email,
		Name:           name,
		HashedPassword: hash,
		Role:           models.RoleUser,
		InitialPoints:  s.initialPoints,
	})
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

// Return user if password matches
// Unknown email and wrong password are not distinguished: both are apperrors.ErrUserNotFound
func (s *UserService) Login(ctx context.Context, email string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, apperrors.ErrUserNotFound
	case err != nil:
		return models.User{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

// User point history, newest first
// Types filters by transaction type; empty means all types
func (s *UserService) ListTransactions(ctx context.Context, userID uuid.UUID, types ...string) ([]models.Transaction, error) {
	for _, t := range types {
		if t != models.TransactionTypeEarned && t != models.TransactionTypeSpent {
			return nil, fmt.Errorf("unknown transaction type %q: %w", t, apperrors.ErrInvalidInput)
		}
	}

	return s.storage.Ledger().ListTransactions(ctx, userID, repository.ListTransactionsOpts{Types: types})
}
