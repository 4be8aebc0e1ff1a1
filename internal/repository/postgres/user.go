package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, created_at, email, name, password_hash, role, points, initial_points`

// Initial points are the starting balance, so both columns get the same value
const createUser = `-- name: CreateUser
INSERT INTO users (id, email, name, password_hash, role, points, initial_points)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	role := params.Role
	if role == "" {
		role = models.RoleUser
	}

	rows, _ := r.DB.Query(ctx, createUser,
		uuid.New(), strings.ToLower(params.Email), params.Name, params.HashedPassword, role, params.InitialPoints,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT ` + userColumns + ` FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, strings.ToLower(email))
	return collectUser(rows)
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Email, &u.Name, &u.HashedPassword, &u.Role, &u.Points, &u.InitialPoints)
	return u, err
}
