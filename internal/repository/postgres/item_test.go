package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
	"github.com/nkiryanov/rewear/internal/testutil"
)

func createTestItem(t *testing.T, s repository.Storage, ownerID uuid.UUID, title string, points int64) models.Item {
	t.Helper()

	item, err := s.Item().CreateItem(t.Context(), repository.CreateItemParams{
		OwnerID:     ownerID,
		Title:       title,
		Description: "description of " + title,
		Category:    "Tops",
		Size:        "M",
		Condition:   "Good",
		PointsValue: points,
	})
	require.NoError(t, err, "test item must be created")

	return item
}

func TestItems(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.InTx(outerTx, t, func(innerTx pgx.Tx) {
			fn(innerTx, NewStorage(innerTx))
		})
	}

	t.Run("CreateItem", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			owner := createTestUser(t, storage, "owner@example.com", 0)

			t.Run("create ok", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					item := createTestItem(t, storage, owner.ID, "Denim jacket", 60)

					require.NotEqual(t, uuid.Nil, item.ID)
					require.Equal(t, owner.ID, item.OwnerID)
					require.Equal(t, "Denim jacket", item.Title)
					require.Equal(t, int64(60), item.PointsValue)
					require.Equal(t, models.ItemAvailable, item.Status, "new item must be available")
					require.WithinDuration(t, time.Now(), item.CreatedAt, time.Second)
				})
			})

			t.Run("not existed owner fail", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					_, err := storage.Item().CreateItem(t.Context(), repository.CreateItemParams{
						OwnerID: uuid.New(),
						Title:   "Ghost",
					})

					require.ErrorIs(t, err, apperrors.ErrUserNotFound)
				})
			})
		})
	})

	t.Run("GetItem", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			owner := createTestUser(t, storage, "owner@example.com", 0)
			item := createTestItem(t, storage, owner.ID, "Scarf", 10)

			for _, forUpdate := range []bool{false, true} {
				got, err := storage.Item().GetItem(t.Context(), item.ID, forUpdate)

				require.NoError(t, err)
				require.Equal(t, item, got)
			}

			_, err := storage.Item().GetItem(t.Context(), uuid.New(), false)
			require.ErrorIs(t, err, apperrors.ErrItemNotFound)
		})
	})

	t.Run("GetItems", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			owner := createTestUser(t, storage, "owner@example.com", 0)
			first := createTestItem(t, storage, owner.ID, "First", 10)
			second := createTestItem(t, storage, owner.ID, "Second", 20)

			items, err := storage.Item().GetItems(t.Context(), []uuid.UUID{second.ID, uuid.New(), first.ID}, true)

			require.NoError(t, err)
			require.Len(t, items, 2, "missing ids must be skipped")
			require.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, []uuid.UUID{items[0].ID, items[1].ID})

			items, err = storage.Item().GetItems(t.Context(), nil, false)
			require.NoError(t, err)
			require.Empty(t, items)
		})
	})

	t.Run("ListItems", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			alice := createTestUser(t, storage, "alice@example.com", 0)
			bob := createTestUser(t, storage, "bob@example.com", 0)

			jacket := createTestItem(t, storage, alice.ID, "Denim jacket", 60)
			dress, err := storage.Item().CreateItem(t.Context(), repository.CreateItemParams{
				OwnerID: bob.ID, Title: "Summer dress", Description: "100% cotton", Category: "Dresses", PointsValue: 40,
			})
			require.NoError(t, err)
			scarf := createTestItem(t, storage, bob.ID, "Wool scarf", 10)
			_, err = storage.Item().SetStatus(t.Context(), []uuid.UUID{scarf.ID}, models.ItemRedeemed)
			require.NoError(t, err)

			ids := func(items []models.Item) []uuid.UUID {
				res := make([]uuid.UUID, 0, len(items))
				for _, i := range items {
					res = append(res, i.ID)
				}
				return res
			}

			tests := []struct {
				name     string
				filter   repository.ItemFilter
				expected []uuid.UUID
			}{
				{"no filter newest first", repository.ItemFilter{}, []uuid.UUID{scarf.ID, dress.ID, jacket.ID}},
				{"by category", repository.ItemFilter{Category: "Dresses"}, []uuid.UUID{dress.ID}},
				{"by search in title", repository.ItemFilter{Search: "DENIM"}, []uuid.UUID{jacket.ID}},
				{"by search in description", repository.ItemFilter{Search: "cotton"}, []uuid.UUID{dress.ID}},
				{"search is not a pattern", repository.ItemFilter{Search: "100%"}, []uuid.UUID{dress.ID}},
				{"by status", repository.ItemFilter{Statuses: []string{models.ItemAvailable}}, []uuid.UUID{dress.ID, jacket.ID}},
				{"by owner", repository.ItemFilter{OwnerID: bob.ID}, []uuid.UUID{scarf.ID, dress.ID}},
				{"combined", repository.ItemFilter{OwnerID: bob.ID, Statuses: []string{models.ItemAvailable}}, []uuid.UUID{dress.ID}},
				{"limit", repository.ItemFilter{Limit: 1}, []uuid.UUID{scarf.ID}},
				{"nothing found", repository.ItemFilter{Category: "Shoes"}, []uuid.UUID{}},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					items, err := storage.Item().ListItems(t.Context(), tt.filter)

					require.NoError(t, err)
					require.Equal(t, tt.expected, ids(items))
				})
			}
		})
	})

	t.Run("SetStatus", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			owner := createTestUser(t, storage, "owner@example.com", 0)
			first := createTestItem(t, storage, owner.ID, "First", 10)
			second := createTestItem(t, storage, owner.ID, "Second", 20)

			count, err := storage.Item().SetStatus(t.Context(), []uuid.UUID{first.ID, second.ID, uuid.New()}, models.ItemSwapped)

			require.NoError(t, err)
			require.Equal(t, int64(2), count)

			items, err := storage.Item().GetItems(t.Context(), []uuid.UUID{first.ID, second.ID}, false)
			require.NoError(t, err)
			for _, item := range items {
				require.Equal(t, models.ItemSwapped, item.Status)
			}
		})
	})
}

func Test_buildListItems(t *testing.T) {
	ownerID := uuid.New()

	query, args := buildListItems(repository.ItemFilter{
		Category: "Tops",
		Search:   "50%_off",
		Statuses: []string{models.ItemAvailable},
		OwnerID:  ownerID,
		Limit:    10000,
	})

	require.Equal(t,
		"SELECT "+itemColumns+" FROM items WHERE category = $1 AND (title ILIKE $2 OR description ILIKE $2)"+
			" AND status = ANY($3) AND owner_id = $4 ORDER BY created_at DESC, id LIMIT $5",
		query,
	)
	require.Equal(t, []any{"Tops", `%50\%\_off%`, []string{models.ItemAvailable}, ownerID, maxListLimit}, args)
}
