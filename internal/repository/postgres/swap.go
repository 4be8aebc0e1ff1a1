package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
)

type SwapRepo struct {
	DB DBTX
}

const swapColumns = `sr.id, sr.requester_id, sr.item_id, sr.offered_item_ids, sr.message, sr.status, sr.last_action_by, sr.created_at, sr.updated_at`

const createSwapRequest = `-- name: CreateSwapRequest
INSERT INTO swap_requests AS sr (id, requester_id, item_id, offered_item_ids, message, status, last_action_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 'pending', $2, $6, $6)
RETURNING ` + swapColumns

func (r *SwapRepo) CreateSwapRequest(ctx context.Context, p repository.CreateSwapParams) (models.SwapRequest, error) {
	rows, _ := r.DB.Query(ctx, createSwapRequest, uuid.New(), p.RequesterID, p.ItemID, p.OfferedItemIDs, p.Message, time.Now())
	swap, err := pgx.CollectOneRow(rows, rowToSwapRequest)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.ForeignKeyViolation:
				return swap, fmt.Errorf("requester or item missing: %w", apperrors.ErrNotFound)
			case pgerrcode.CheckViolation:
				return swap, apperrors.ErrNoOfferedItems
			}
		}

		return swap, fmt.Errorf("db error: %w", err)
	}

	return swap, nil
}

func (r *SwapRepo) GetSwapRequest(ctx context.Context, id uuid.UUID, forUpdate bool) (models.SwapRequest, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_requests sr WHERE sr.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, _ := r.DB.Query(ctx, query, id)
	swap, err := pgx.CollectOneRow(rows, rowToSwapRequest)

	switch {
	case err == nil:
		return swap, nil
	case errors.Is(err, pgx.ErrNoRows):
		return swap, apperrors.ErrProposalNotFound
	default:
		return swap, fmt.Errorf("db error: %w", err)
	}
}

const listSwapRequests = `-- name: ListSwapRequests
SELECT ` + swapColumns + `
FROM swap_requests sr
JOIN items i ON i.id = sr.item_id
WHERE sr.requester_id = $1 OR i.owner_id = $1
ORDER BY sr.created_at DESC, sr.id
`

func (r *SwapRepo) ListSwapRequests(ctx context.Context, userID uuid.UUID) ([]models.SwapRequest, error) {
	rows, _ := r.DB.Query(ctx, listSwapRequests, userID)
	swaps, err := pgx.CollectRows(rows, rowToSwapRequest)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return swaps, nil
}

// Terminal states are immutable: only pending request can be resolved
const resolveSwapRequest = `-- name: ResolveSwapRequest
UPDATE swap_requests AS sr
SET status = $2, last_action_by = $3, updated_at = now()
WHERE sr.id = $1 AND sr.status = 'pending'
RETURNING ` + swapColumns

func (r *SwapRepo) Resolve(ctx context.Context, id uuid.UUID, status string, actorID uuid.UUID) (models.SwapRequest, error) {
	if status != models.SwapCompleted && status != models.SwapDeclined {
		return models.SwapRequest{}, fmt.Errorf("status %q is not terminal: %w", status, apperrors.ErrInvalidInput)
	}

	rows, _ := r.DB.Query(ctx, resolveSwapRequest, id, status, actorID)
	swap, err := pgx.CollectOneRow(rows, rowToSwapRequest)

	switch {
	case err == nil:
		return swap, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either missing or resolved already; tell them apart
		if _, getErr := r.GetSwapRequest(ctx, id, false); getErr != nil {
			return swap, getErr
		}
		return swap, apperrors.ErrProposalNotPending
	default:
		return swap, fmt.Errorf("db error: %w", err)
	}
}

func rowToSwapRequest(row pgx.CollectableRow) (models.SwapRequest, error) {
	var s models.SwapRequest
	err := row.Scan(&s.ID, &s.RequesterID, &s.ItemID, &s.OfferedItemIDs, &s.Message, &s.Status, &s.LastActionBy, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
