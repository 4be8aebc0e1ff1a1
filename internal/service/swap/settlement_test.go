package swap

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
	"github.com/nkiryanov/rewear/internal/repository/postgres"
	"github.com/nkiryanov/rewear/internal/service/redemption"
	"github.com/nkiryanov/rewear/internal/testutil"
)

func TestAccept(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withStorage := func(t *testing.T, fn func(s *SwapService, storage repository.Storage)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(NewService(storage, nil), storage)
		})
	}

	propose := func(t *testing.T, s *SwapService, f fixture, offered ...uuid.UUID) models.SwapRequest {
		t.Helper()
		req, err := s.Propose(t.Context(), ProposeParams{RequesterID: f.requester.ID, ItemID: f.jacket.ID, OfferedItemIDs: offered})
		require.NoError(t, err)
		return req
	}

	t.Run("settle value difference", func(t *testing.T) {
		tests := []struct {
			name           string
			jacket         int64
			scarf          int64
			belt           int64
			direction      Direction
			points         int64
			ownerPoints    int64
			requesterPoint int64
			message        string
		}{
			{
				name:   "requester pays owner",
				jacket: 60, scarf: 30, belt: 10,
				direction:   DirectionRequesterToOwner,
				points:      20,
				ownerPoints: 120, requesterPoint: 80,
				message: "Swap completed! 20 points transferred from requester to owner.",
			},
			{
				name:   "owner pays requester",
				jacket: 40, scarf: 50, belt: 10,
				direction:   DirectionOwnerToRequester,
				points:      20,
				ownerPoints: 80, requesterPoint: 120,
				message: "Swap completed! 20 points transferred from owner to requester.",
			},
			{
				name:   "equal value",
				jacket: 50, scarf: 40, belt: 10,
				direction:   DirectionNone,
				points:      0,
				ownerPoints: 100, requesterPoint: 100,
				message: "Swap completed and items marked as swapped",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withStorage(t, func(s *SwapService, storage repository.Storage) {
					f := newFixture(t, storage, tt.jacket, tt.scarf, tt.belt)
					req := propose(t, s, f, f.scarf.ID, f.belt.ID)

					res, err := s.Accept(t.Context(), req.ID, f.owner.ID)

					require.NoError(t, err)
					assert.Equal(t, tt.direction, res.Direction)
					assert.Equal(t, tt.points, res.Points)
					assert.Equal(t, tt.message, res.Message())
					assert.Equal(t, models.SwapCompleted, res.Request.Status)
					assert.Equal(t, f.owner.ID, res.Request.LastActionBy)

					assert.Equal(t, tt.ownerPoints, testutil.Points(t, storage, f.owner.ID))
					assert.Equal(t, tt.requesterPoint, testutil.Points(t, storage, f.requester.ID))
					for _, id := range []uuid.UUID{f.jacket.ID, f.scarf.ID, f.belt.ID} {
						assert.Equal(t, models.ItemSwapped, testutil.ItemStatus(t, storage, id))
					}
					testutil.RequireLedgerConsistent(t, storage, f.owner, f.requester)

					if tt.direction == DirectionNone {
						assert.Empty(t, res.Transactions)
						return
					}
					require.Len(t, res.Transactions, 2)
					assert.Equal(t, "Points paid for swap difference - Denim jacket", res.Transactions[0].Description)
					assert.Equal(t, "Points received for swap difference - Denim jacket", res.Transactions[1].Description)
					for _, tr := range res.Transactions {
						require.NotNil(t, tr.ItemID)
						assert.Equal(t, f.jacket.ID, *tr.ItemID)
					}
				})
			})
		}
	})

	t.Run("item owner does not change", func(t *testing.T) {
		withStorage(t, func(s *SwapService, storage repository.Storage) {
			f := newFixture(t, storage, 60, 30, 10)
			req := propose(t, s, f, f.scarf.ID)

			_, err := s.Accept(t.Context(), req.ID, f.owner.ID)
			require.NoError(t, err)

			jacket, err := storage.Item().GetItem(t.Context(), f.jacket.ID, false)
			require.NoError(t, err)
			assert.Equal(t, f.owner.ID, jacket.OwnerID)
		})
	})

	t.Run("insufficient balance rolls back", func(t *testing.T) {
		tests := []struct {
			name   string
			jacket int64
			scarf  int64
			payer  func(f fixture) models.User
		}{
			{name: "requester can't pay", jacket: 150, scarf: 10, payer: func(f fixture) models.User { return f.requester }},
			{name: "owner can't pay", jacket: 10, scarf: 150, payer: func(f fixture) models.User { return f.owner }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withStorage(t, func(s *SwapService, storage repository.Storage) {
					f := newFixture(t, storage, tt.jacket, tt.scarf, 0)
					req := propose(t, s, f, f.scarf.ID)

					_, err := s.Accept(t.Context(), req.ID, f.owner.ID)

					require.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
					assert.Equal(t, int64(100), testutil.Points(t, storage, tt.payer(f).ID))
					assert.Equal(t, int64(100), testutil.Points(t, storage, f.owner.ID))
					assert.Equal(t, int64(100), testutil.Points(t, storage, f.requester.ID))
					assert.Equal(t, models.ItemAvailable, testutil.ItemStatus(t, storage, f.jacket.ID))
					assert.Equal(t, models.ItemAvailable, testutil.ItemStatus(t, storage, f.scarf.ID))

					got, err := s.Get(t.Context(), req.ID, f.owner.ID)
					require.NoError(t, err)
					assert.Equal(t, models.SwapPending, got.Status, "request stays pending")
					testutil.RequireLedgerConsistent(t, storage, f.owner, f.requester)
				})
			})
		}
	})

	t.Run("accept fail", func(t *testing.T) {
		tests := []struct {
			name    string
			prepare func(t *testing.T, s *SwapService, f fixture, req models.SwapRequest)
			actor   func(f fixture) uuid.UUID
			id      func(req models.SwapRequest) uuid.UUID
			err     error
		}{
			{
				name:  "requester can't accept",
				actor: func(f fixture) uuid.UUID { return f.requester.ID },
				err:   apperrors.ErrNotAuthorized,
			},
			{
				name:  "not found",
				actor: func(f fixture) uuid.UUID { return f.owner.ID },
				id:    func(models.SwapRequest) uuid.UUID { return uuid.New() },
				err:   apperrors.ErrProposalNotFound,
			},
			{
				name: "already completed",
				prepare: func(t *testing.T, s *SwapService, f fixture, req models.SwapRequest) {
					_, err := s.Accept(t.Context(), req.ID, f.owner.ID)
					require.NoError(t, err)
				},
				actor: func(f fixture) uuid.UUID { return f.owner.ID },
				err:   apperrors.ErrProposalNotPending,
			},
			{
				name: "requester on completed request",
				prepare: func(t *testing.T, s *SwapService, f fixture, req models.SwapRequest) {
					_, err := s.Accept(t.Context(), req.ID, f.owner.ID)
					require.NoError(t, err)
				},
				actor: func(f fixture) uuid.UUID { return f.requester.ID },
				err:   apperrors.ErrNotAuthorized,
			},
			{
				name: "requested item gone",
				prepare: func(t *testing.T, s *SwapService, f fixture, _ models.SwapRequest) {
					_, err := s.storage.Item().SetStatus(t.Context(), []uuid.UUID{f.jacket.ID}, models.ItemRedeemed)
					require.NoError(t, err)
				},
				actor: func(f fixture) uuid.UUID { return f.owner.ID },
				err:   apperrors.ErrItemUnavailable,
			},
			{
				name: "offered item gone",
				prepare: func(t *testing.T, s *SwapService, f fixture, _ models.SwapRequest) {
					_, err := s.storage.Item().SetStatus(t.Context(), []uuid.UUID{f.belt.ID}, models.ItemSwapped)
					require.NoError(t, err)
				},
				actor: func(f fixture) uuid.UUID { return f.owner.ID },
				err:   apperrors.ErrItemUnavailable,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withStorage(t, func(s *SwapService, storage repository.Storage) {
					f := newFixture(t, storage, 60, 30, 10)
					req := propose(t, s, f, f.scarf.ID, f.belt.ID)
					if tt.prepare != nil {
						tt.prepare(t, s, f, req)
					}
					id := req.ID
					if tt.id != nil {
						id = tt.id(req)
					}
					ownerPoints := testutil.Points(t, storage, f.owner.ID)
					requesterPoints := testutil.Points(t, storage, f.requester.ID)

					_, err := s.Accept(t.Context(), id, tt.actor(f))

					require.ErrorIs(t, err, tt.err)
					assert.Equal(t, ownerPoints, testutil.Points(t, storage, f.owner.ID))
					assert.Equal(t, requesterPoints, testutil.Points(t, storage, f.requester.ID))
				})
			})
		}
	})

	t.Run("offered item gone keeps other items available", func(t *testing.T) {
		withStorage(t, func(s *SwapService, storage repository.Storage) {
			f := newFixture(t, storage, 60, 30, 10)
			buyer := testutil.CreateUser(t, storage, "buyer@example.com", 100)
			req := propose(t, s, f, f.scarf.ID, f.belt.ID)

			_, err := redemption.NewService(storage, nil).Redeem(t.Context(), f.scarf.ID, buyer.ID)
			require.NoError(t, err)

			_, err = s.Accept(t.Context(), req.ID, f.owner.ID)

			require.ErrorIs(t, err, apperrors.ErrItemUnavailable)
			assert.Equal(t, models.ItemAvailable, testutil.ItemStatus(t, storage, f.jacket.ID))
			assert.Equal(t, models.ItemAvailable, testutil.ItemStatus(t, storage, f.belt.ID))
			assert.Equal(t, models.ItemRedeemed, testutil.ItemStatus(t, storage, f.scarf.ID))
		})
	})

	t.Run("second request for swapped item fails", func(t *testing.T) {
		withStorage(t, func(s *SwapService, storage repository.Storage) {
			f := newFixture(t, storage, 60, 30, 10)
			first := propose(t, s, f, f.scarf.ID)
			second := propose(t, s, f, f.belt.ID)

			_, err := s.Accept(t.Context(), first.ID, f.owner.ID)
			require.NoError(t, err)

			_, err = s.Accept(t.Context(), second.ID, f.owner.ID)
			require.ErrorIs(t, err, apperrors.ErrItemUnavailable)
			assert.Equal(t, models.ItemAvailable, testutil.ItemStatus(t, storage, f.belt.ID))
		})
	})
}

// Committed data: every operation runs in its own transaction
func TestAcceptConcurrent(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	storage := postgres.NewStorage(pg.Pool)
	s := NewService(storage, nil)

	t.Run("concurrent accepts settle once", func(t *testing.T) {
		f := newFixture(t, storage, 60, 30, 10)
		req, err := s.Propose(t.Context(), ProposeParams{RequesterID: f.requester.ID, ItemID: f.jacket.ID, OfferedItemIDs: []uuid.UUID{f.scarf.ID}})
		require.NoError(t, err)

		const attempts = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Accept(context.Background(), req.ID, f.owner.ID)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				default:
					assert.ErrorIs(t, err, apperrors.ErrInvalidState)
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, succeeded, "request must be settled exactly once")
		require.Equal(t, int64(130), testutil.Points(t, storage, f.owner.ID))
		require.Equal(t, int64(70), testutil.Points(t, storage, f.requester.ID))
		testutil.RequireLedgerConsistent(t, storage, f.owner, f.requester)
	})

	t.Run("competing requests for the same item", func(t *testing.T) {
		f := newFixture(t, storage, 60, 30, 10)
		first, err := s.Propose(t.Context(), ProposeParams{RequesterID: f.requester.ID, ItemID: f.jacket.ID, OfferedItemIDs: []uuid.UUID{f.scarf.ID}})
		require.NoError(t, err)
		second, err := s.Propose(t.Context(), ProposeParams{RequesterID: f.requester.ID, ItemID: f.jacket.ID, OfferedItemIDs: []uuid.UUID{f.belt.ID}})
		require.NoError(t, err)

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i, id := range []uuid.UUID{first.ID, second.ID} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = s.Accept(context.Background(), id, f.owner.ID)
			}()
		}
		wg.Wait()

		var succeeded int
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, apperrors.ErrItemUnavailable)
		}
		require.Equal(t, 1, succeeded)
		require.Equal(t, models.ItemSwapped, testutil.ItemStatus(t, storage, f.jacket.ID))
		testutil.RequireLedgerConsistent(t, storage, f.owner, f.requester)
	})

	t.Run("accept races decline", func(t *testing.T) {
		f := newFixture(t, storage, 60, 60, 0)
		req, err := s.Propose(t.Context(), ProposeParams{RequesterID: f.requester.ID, ItemID: f.jacket.ID, OfferedItemIDs: []uuid.UUID{f.scarf.ID}})
		require.NoError(t, err)

		var (
			wg                     sync.WaitGroup
			acceptErr, declineErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, acceptErr = s.Accept(context.Background(), req.ID, f.owner.ID)
		}()
		go func() {
			defer wg.Done()
			_, declineErr = s.Decline(context.Background(), req.ID, f.owner.ID)
		}()
		wg.Wait()

		got, err := s.Get(t.Context(), req.ID, f.owner.ID)
		require.NoError(t, err)

		switch {
		case acceptErr == nil:
			require.ErrorIs(t, declineErr, apperrors.ErrProposalNotPending)
			require.Equal(t, models.SwapCompleted, got.Status)
			require.Equal(t, models.ItemSwapped, testutil.ItemStatus(t, storage, f.jacket.ID))
		case declineErr == nil:
			require.ErrorIs(t, acceptErr, apperrors.ErrProposalNotPending)
			require.Equal(t, models.SwapDeclined, got.Status)
			require.Equal(t, models.ItemAvailable, testutil.ItemStatus(t, storage, f.jacket.ID))
		default:
			t.Fatalf("exactly one of accept and decline must succeed: accept=%v decline=%v", acceptErr, declineErr)
		}
	})

	t.Run("accept races redeem of offered item", func(t *testing.T) {
		f := newFixture(t, storage, 60, 30, 10)
		buyer := testutil.CreateUser(t, storage, uuid.NewString()+"@buyer.example.com", 100)
		req, err := s.Propose(t.Context(), ProposeParams{RequesterID: f.requester.ID, ItemID: f.jacket.ID, OfferedItemIDs: []uuid.UUID{f.scarf.ID}})
		require.NoError(t, err)

		var (
			wg                    sync.WaitGroup
			acceptErr, redeemErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, acceptErr = s.Accept(context.Background(), req.ID, f.owner.ID)
		}()
		go func() {
			defer wg.Done()
			_, redeemErr = redemption.NewService(storage, nil).Redeem(context.Background(), f.scarf.ID, buyer.ID)
		}()
		wg.Wait()

		switch {
		case acceptErr == nil:
			require.ErrorIs(t, redeemErr, apperrors.ErrItemUnavailable)
			require.Equal(t, models.ItemSwapped, testutil.ItemStatus(t, storage, f.scarf.ID))
			require.Equal(t, int64(100), testutil.Points(t, storage, buyer.ID))
		case redeemErr == nil:
			require.ErrorIs(t, acceptErr, apperrors.ErrItemUnavailable)
			require.Equal(t, models.ItemRedeemed, testutil.ItemStatus(t, storage, f.scarf.ID))
			require.Equal(t, models.ItemAvailable, testutil.ItemStatus(t, storage, f.jacket.ID))
		default:
			t.Fatalf("exactly one of accept and redeem must succeed: accept=%v redeem=%v", acceptErr, redeemErr)
		}
		testutil.RequireLedgerConsistent(t, storage, f.owner, f.requester, buyer)
	})
}
