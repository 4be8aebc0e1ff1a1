package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
	"github.com/nkiryanov/rewear/internal/service/item"
	"github.com/nkiryanov/rewear/internal/service/redemption"
	"github.com/nkiryanov/rewear/internal/service/swap"
)

// Authenticates every request as the given user
type staticAuth struct {
	authService
	user models.User
}

func (a staticAuth) GetUserFromRequest(context.Context, *http.Request) (models.User, error) {
	return a.user, nil
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) ListTransactions(ctx context.Context, userID uuid.UUID, types ...string) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, types)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

type mockItems struct{ mock.Mock }

func (m *mockItems) Create(ctx context.Context, ownerID uuid.UUID, p item.CreateParams) (models.Item, error) {
	args := m.Called(ctx, ownerID, p)
	return args.Get(0).(models.Item), args.Error(1)
}

func (m *mockItems) Get(ctx context.Context, itemID uuid.UUID) (models.Item, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(models.Item), args.Error(1)
}

func (m *mockItems) List(ctx context.Context, filter repository.ItemFilter) ([]models.Item, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Item), args.Error(1)
}

type mockRedemption struct{ mock.Mock }

func (m *mockRedemption) Redeem(ctx context.Context, itemID uuid.UUID, buyerID uuid.UUID) (redemption.Redemption, error) {
	args := m.Called(ctx, itemID, buyerID)
	return args.Get(0).(redemption.Redemption), args.Error(1)
}

type mockSwaps struct{ mock.Mock }

func (m *mockSwaps) Propose(ctx context.Context, p swap.ProposeParams) (models.SwapRequest, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(models.SwapRequest), args.Error(1)
}

func (m *mockSwaps) Accept(ctx context.Context, proposalID uuid.UUID, actorID uuid.UUID) (swap.Settlement, error) {
	args := m.Called(ctx, proposalID, actorID)
	return args.Get(0).(swap.Settlement), args.Error(1)
}

func (m *mockSwaps) Decline(ctx context.Context, proposalID uuid.UUID, actorID uuid.UUID) (models.SwapRequest, error) {
	args := m.Called(ctx, proposalID, actorID)
	return args.Get(0).(models.SwapRequest), args.Error(1)
}

func (m *mockSwaps) List(ctx context.Context, userID uuid.UUID) ([]models.SwapRequestDetails, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.SwapRequestDetails), args.Error(1)
}

func (m *mockSwaps) Get(ctx context.Context, proposalID uuid.UUID, viewerID uuid.UUID) (models.SwapRequestDetails, error) {
	args := m.Called(ctx, proposalID, viewerID)
	return args.Get(0).(models.SwapRequestDetails), args.Error(1)
}

type mockHealth struct{ mock.Mock }

func (m *mockHealth) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
