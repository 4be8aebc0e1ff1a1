package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
)

type LedgerRepo struct {
	DB DBTX
}

func (r *LedgerRepo) GetBalance(ctx context.Context, userID uuid.UUID, forUpdate bool) (int64, error) {
	query := `SELECT points FROM users WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, _ := r.DB.Query(ctx, query, userID)
	points, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])

	switch {
	case err == nil:
		return points, nil
	case errors.Is(err, pgx.ErrNoRows):
		return 0, apperrors.ErrUserNotFound
	default:
		return 0, fmt.Errorf("db error: %w", err)
	}
}

const lockBalances = `-- name: LockBalances
SELECT id, points FROM users
WHERE id = ANY($1)
ORDER BY id
FOR UPDATE
`

const addPoints = `-- name: AddPoints
UPDATE users SET points = points + $2
WHERE id = $1
`

const createTransaction = `-- name: CreateTransaction
INSERT INTO point_transactions (id, created_at, user_id, type, amount, description, item_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func (r *LedgerRepo) Transfer(ctx context.Context, p repository.TransferParams) ([]models.Transaction, error) {
	switch {
	case p.Amount < 0:
		return nil, fmt.Errorf("transfer amount must not be negative, got %d: %w", p.Amount, apperrors.ErrInvalidInput)
	case p.FromUserID == p.ToUserID:
		return nil, apperrors.ErrSelfTransaction
	}

	// Lock both balances in id order, so opposite transfers can't deadlock
	ids := []uuid.UUID{p.FromUserID, p.ToUserID}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	type balanceRow struct {
		ID     uuid.UUID
		Points int64
	}

	rows, _ := r.DB.Query(ctx, lockBalances, ids)
	locked, err := pgx.CollectRows(rows, pgx.RowToStructByPos[balanceRow])
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	balances := make(map[uuid.UUID]int64, len(locked))
	for _, b := range locked {
		balances[b.ID] = b.Points
	}

	fromPoints, fromOk := balances[p.FromUserID]
	_, toOk := balances[p.ToUserID]
	switch {
	case !fromOk || !toOk:
		return nil, apperrors.ErrUserNotFound
	case fromPoints < p.Amount:
		return nil, apperrors.ErrBalanceInsufficient
	}

	if err := r.addPoints(ctx, p.FromUserID, -p.Amount); err != nil {
		return nil, err
	}
	if err := r.addPoints(ctx, p.ToUserID, p.Amount); err != nil {
		return nil, err
	}

	now := time.Now()
	transactions := []models.Transaction{
		{
			ID:          uuid.New(),
			CreatedAt:   now,
			UserID:      p.FromUserID,
			Type:        models.TransactionTypeSpent,
			Amount:      -p.Amount,
			Description: p.SpentDescription,
			ItemID:      p.ItemID,
		},
		{
			ID:          uuid.New(),
			CreatedAt:   now,
			UserID:      p.ToUserID,
			Type:        models.TransactionTypeEarned,
			Amount:      p.Amount,
			Description: p.EarnedDescription,
			ItemID:      p.ItemID,
		},
	}

	for _, t := range transactions {
		_, err := r.DB.Exec(ctx, createTransaction, t.ID, t.CreatedAt, t.UserID, t.Type, t.Amount, t.Description, t.ItemID)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	return transactions, nil
}

func (r *LedgerRepo) addPoints(ctx context.Context, userID uuid.UUID, delta int64) error {
	_, err := r.DB.Exec(ctx, addPoints, userID, delta)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return apperrors.ErrBalanceInsufficient
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *LedgerRepo) ListTransactions(ctx context.Context, userID uuid.UUID, opts repository.ListTransactionsOpts) ([]models.Transaction, error) {
	var b whereBuilder
	b.add("user_id = ?", userID)
	if len(opts.Types) > 0 {
		b.add("type = ANY(?)", opts.Types)
	}

	limit := opts.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	b.args = append(b.args, limit)

	query := `SELECT id, created_at, user_id, type, amount, description, item_id FROM point_transactions` +
		b.sql() + fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d", len(b.args))

	rows, _ := r.DB.Query(ctx, query, b.args...)
	transactions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		var t models.Transaction
		err := row.Scan(&t.ID, &t.CreatedAt, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.ItemID)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

func (r *LedgerRepo) SumTransactions(ctx context.Context, userID uuid.UUID) (int64, error) {
	rows, _ := r.DB.Query(ctx, `SELECT COALESCE(SUM(amount), 0)::bigint FROM point_transactions WHERE user_id = $1`, userID)
	sum, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return sum, nil
}
