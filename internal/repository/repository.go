package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/rewear/internal/models"
)

// Storage gives access to all repositories bound to the same connection or transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Item() ItemRepo
	Swap() SwapRepo
	Ledger() LedgerRepo

	// Run fn within transaction: commit if fn returns nil, rollback otherwise
	// Repositories passed to fn are bound to that transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}

type CreateUserParams struct {
	Email          string
	Name           string
	HashedPassword string
	Role           string
	InitialPoints  int64
}

// User repository interface
type UserRepo interface {
	// Create user with initial points
	// If user with email exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	Save(ctx context.Context, token models.RefreshToken) error

	// Return token and mark it used
	// If token not found must return apperrors.ErrRefreshTokenNotFound
	// If token used already must return apperrors.ErrRefreshTokenIsUsed
	GetAndMarkUsed(ctx context.Context, token string) (models.RefreshToken, error)
}

type CreateItemParams struct {
	OwnerID     uuid.UUID
	Title       string
	Description string
	Category    string
	Size        string
	Condition   string
	PointsValue int64
}

// Allowed item filters. Zero value fields are not applied
type ItemFilter struct {
	Category string
	Search   string // case insensitive match on title or description
	Statuses []string
	OwnerID  uuid.UUID
	Limit    int
}

// Item registry interface
type ItemRepo interface {
	CreateItem(ctx context.Context, params CreateItemParams) (models.Item, error)

	// Get item by id, lock row for update if forUpdate set
	// If item not found must return apperrors.ErrItemNotFound
	GetItem(ctx context.Context, itemID uuid.UUID, forUpdate bool) (models.Item, error)

	// Get items ordered by id; missing ids are skipped
	// Rows are locked in id order if forUpdate set
	GetItems(ctx context.Context, itemIDs []uuid.UUID, forUpdate bool) ([]models.Item, error)

	// Newest first
	ListItems(ctx context.Context, filter ItemFilter) ([]models.Item, error)

	// Set status for all items in one statement, return count of updated items
	SetStatus(ctx context.Context, itemIDs []uuid.UUID, status string) (int64, error)
}

type CreateSwapParams struct {
	RequesterID    uuid.UUID
	ItemID         uuid.UUID
	OfferedItemIDs []uuid.UUID
	Message        *string
}

// Swap request repository interface
type SwapRepo interface {
	CreateSwapRequest(ctx context.Context, params CreateSwapParams) (models.SwapRequest, error)

	// If swap request not found must return apperrors.ErrProposalNotFound
	GetSwapRequest(ctx context.Context, id uuid.UUID, forUpdate bool) (models.SwapRequest, error)

	// Requests where user is requester or requested item owner, newest first
	ListSwapRequests(ctx context.Context, userID uuid.UUID) ([]models.SwapRequest, error)

	// Move pending request to the status
	// If request is not pending anymore must return apperrors.ErrProposalNotPending
	Resolve(ctx context.Context, id uuid.UUID, status string, actorID uuid.UUID) (models.SwapRequest, error)
}

type TransferParams struct {
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Amount     int64
	ItemID     *uuid.UUID

	// Descriptions of 'spent' transaction of payer and 'earned' transaction of payee
	SpentDescription  string
	EarnedDescription string
}

type ListTransactionsOpts struct {
	Types []string
	Limit int
}

// Ledger owns user point balances and transactions
// It is the only writer of both
type LedgerRepo interface {
	// Get user points, lock row for update if forUpdate set
	// If user not found must return apperrors.ErrUserNotFound
	GetBalance(ctx context.Context, userID uuid.UUID, forUpdate bool) (int64, error)

	// Move points between users and record a spent/earned pair
	// Has to return apperrors.ErrBalanceInsufficient if payer can't afford it
	// Must be called within transaction
	Transfer(ctx context.Context, params TransferParams) ([]models.Transaction, error)

	// Newest first
	ListTransactions(ctx context.Context, userID uuid.UUID, opts ListTransactionsOpts) ([]models.Transaction, error)

	// Sum of all user transactions amounts
	SumTransactions(ctx context.Context, userID uuid.UUID) (int64, error)
}
