package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type ItemRepo struct {
	DB DBTX
}

const itemColumns = `id, owner_id, title, description, category, size, condition, points_value, status, created_at, updated_at`

const createItem = `-- name: CreateItem
INSERT INTO items (id, owner_id, title, description, category, size, condition, points_value, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'available', $9, $9)
RETURNING ` + itemColumns

func (r *ItemRepo) CreateItem(ctx context.Context, p repository.CreateItemParams) (models.Item, error) {
	rows, _ := r.DB.Query(ctx, createItem,
		uuid.New(), p.OwnerID, p.Title, p.Description, p.Category, p.Size, p.Condition, p.PointsValue, time.Now(),
	)
	item, err := pgx.CollectOneRow(rows, rowToItem)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return item, apperrors.ErrUserNotFound
		}

		return item, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *ItemRepo) GetItem(ctx context.Context, itemID uuid.UUID, forUpdate bool) (models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, _ := r.DB.Query(ctx, query, itemID)
	item, err := pgx.CollectOneRow(rows, rowToItem)

	switch {
	case err == nil:
		return item, nil
	case errors.Is(err, pgx.ErrNoRows):
		return item, apperrors.ErrItemNotFound
	default:
		return item, fmt.Errorf("db error: %w", err)
	}
}

func (r *ItemRepo) GetItems(ctx context.Context, itemIDs []uuid.UUID, forUpdate bool) ([]models.Item, error) {
	if len(itemIDs) == 0 {
		return []models.Item{}, nil
	}

	// Order matters: concurrent lockers take row locks in the same order
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ANY($1) ORDER BY id`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, _ := r.DB.Query(ctx, query, itemIDs)
	items, err := pgx.CollectRows(rows, rowToItem)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *ItemRepo) ListItems(ctx context.Context, filter repository.ItemFilter) ([]models.Item, error) {
	query, args := buildListItems(filter)

	rows, _ := r.DB.Query(ctx, query, args...)
	items, err := pgx.CollectRows(rows, rowToItem)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

const setItemsStatus = `-- name: SetItemsStatus
UPDATE items
SET status = $2, updated_at = now()
WHERE id = ANY($1)
`

func (r *ItemRepo) SetStatus(ctx context.Context, itemIDs []uuid.UUID, status string) (int64, error) {
	tag, err := r.DB.Exec(ctx, setItemsStatus, itemIDs, status)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Collects conditions with positional arguments
// Only filter fields known to ItemFilter can become conditions
type whereBuilder struct {
	conds []string
	args  []any
}

// Add condition; every '?' in cond is replaced with the placeholder of arg
func (b *whereBuilder) add(cond string, arg any) {
	b.args = append(b.args, arg)
	b.conds = append(b.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(b.args))))
}

func (b *whereBuilder) sql() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

func buildListItems(filter repository.ItemFilter) (string, []any) {
	var b whereBuilder

	if filter.Category != "" {
		b.add("category = ?", filter.Category)
	}
	if filter.Search != "" {
		b.add("(title ILIKE ? OR description ILIKE ?)", "%"+escapeLike(filter.Search)+"%")
	}
	if len(filter.Statuses) > 0 {
		b.add("status = ANY(?)", filter.Statuses)
	}
	if filter.OwnerID != uuid.Nil {
		b.add("owner_id = ?", filter.OwnerID)
	}

	limit := filter.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	b.args = append(b.args, limit)

	query := `SELECT ` + itemColumns + ` FROM items` + b.sql() +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d", len(b.args))

	return query, b.args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func rowToItem(row pgx.CollectableRow) (models.Item, error) {
	var i models.Item
	err := row.Scan(&i.ID, &i.OwnerID, &i.Title, &i.Description, &i.Category, &i.Size, &i.Condition, &i.PointsValue, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}
