package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at, used_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) error {
	_, err := r.DB.Exec(ctx, saveToken, token.ID, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt, token.UsedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Lock the row first, so only one of concurrent callers would see the token unused
const getAndMarkUsed = `-- name: GetAndMarkUsed
WITH target AS (
	SELECT id, used_at AS prev_used_at
	FROM refresh_tokens
	WHERE token = $1
	FOR UPDATE
)
UPDATE refresh_tokens rt
SET used_at = COALESCE(rt.used_at, $2)
FROM target
WHERE rt.id = target.id
RETURNING rt.id, rt.user_id, rt.created_at, rt.expires_at, rt.used_at, target.prev_used_at
`

func (r *RefreshTokenRepo) GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	var prevUsedAt *time.Time

	rows, _ := r.DB.Query(ctx, getAndMarkUsed, tokenString, time.Now())
	token, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.RefreshToken, error) {
		t := models.RefreshToken{Token: tokenString}
		err := row.Scan(&t.ID, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt, &prevUsedAt)
		return t, err
	})

	switch {
	case err == nil && prevUsedAt == nil:
		return token, nil
	case err == nil:
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenIsUsed)
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}
