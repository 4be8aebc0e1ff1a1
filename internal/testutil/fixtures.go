package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
)

// Create user starting with points
func CreateUser(t *testing.T, s repository.Storage, email string, points int64) models.User {
	t.Helper()

	user, err := s.User().CreateUser(t.Context(), repository.CreateUserParams{
		Email:          email,
		Name:           email,
		HashedPassword: "hashed-password",
		InitialPoints:  points,
	})
	require.NoError(t, err, "test user must be created")

	return user
}

// Create available item
func CreateItem(t *testing.T, s repository.Storage, ownerID uuid.UUID, title string, points int64) models.Item {
	t.Helper()

	item, err := s.Item().CreateItem(t.Context(), repository.CreateItemParams{
		OwnerID:     ownerID,
		Title:       title,
		Category:    "Tops",
		Size:        "M",
		Condition:   "Good",
		PointsValue: points,
	})
	require.NoError(t, err, "test item must be created")

	return item
}

// Current points of user
func Points(t *testing.T, s repository.Storage, userID uuid.UUID) int64 {
	t.Helper()

	points, err := s.Ledger().GetBalance(t.Context(), userID, false)
	require.NoError(t, err)

	return points
}

// Check user transactions explain the balance: sum(amounts) == points - initial points
func RequireLedgerConsistent(t *testing.T, s repository.Storage, users ...models.User) {
	t.Helper()

	for _, u := range users {
		sum, err := s.Ledger().SumTransactions(t.Context(), u.ID)
		require.NoError(t, err)
		require.Equalf(t, Points(t, s, u.ID)-u.InitialPoints, sum, "transactions of %s must explain the balance", u.Email)
	}
}

// Current status of item
func ItemStatus(t *testing.T, s repository.Storage, itemID uuid.UUID) string {
	t.Helper()

	item, err := s.Item().GetItem(t.Context(), itemID, false)
	require.NoError(t, err)

	return item.Status
}
