package swap

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/logger"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
)

type ProposeParams struct {
	RequesterID    uuid.UUID
	ItemID         uuid.UUID
	OfferedItemIDs []uuid.UUID
	Message        string
}

// Manages swap request lifecycle: propose, decline, accept
type SwapService struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewService(storage repository.Storage, l logger.Logger) *SwapService {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &SwapService{storage: storage, logger: l}
}

// Create pending swap request
// Items are not reserved: several pending requests may reference the same items,
// acceptance checks availability again and only one of them can be settled
func (s *SwapService) Propose(ctx context.Context, p ProposeParams) (models.SwapRequest, error) {
	offered := uniqueIDs(p.OfferedItemIDs)
	switch {
	case len(offered) == 0:
		return models.SwapRequest{}, apperrors.ErrNoOfferedItems
	case slices.Contains(offered, p.ItemID):
		return models.SwapRequest{}, apperrors.ErrInvalidOffer
	}

	requested, err := s.storage.Item().GetItem(ctx, p.ItemID, false)
	switch {
	case err != nil:
		return models.SwapRequest{}, err
	case requested.OwnerID == p.RequesterID:
		return models.SwapRequest{}, apperrors.ErrSelfTransaction
	case !requested.IsAvailable():
		return models.SwapRequest{}, apperrors.ErrItemUnavailable
	}

	items, err := s.storage.Item().GetItems(ctx, offered, false)
	if err != nil {
		return models.SwapRequest{}, err
	}
	if len(items) != len(offered) {
		return models.SwapRequest{}, fmt.Errorf("offered item: %w", apperrors.ErrItemNotFound)
	}
	for _, item := range items {
		switch {
		case item.OwnerID != p.RequesterID:
			return models.SwapRequest{}, apperrors.ErrOfferedItemNotOwned
		case !item.IsAvailable():
			return models.SwapRequest{}, fmt.Errorf("offered item %s: %w", item.ID, apperrors.ErrItemUnavailable)
		}
	}

	var message *string
	if m := strings.TrimSpace(p.Message); m != "" {
		message = &m
	}

	req, err := s.storage.Swap().CreateSwapRequest(ctx, repository.CreateSwapParams{
		RequesterID:    p.RequesterID,
		ItemID:         p.ItemID,
		OfferedItemIDs: offered,
		Message:        message,
	})
	if err != nil {
		return req, err
	}

	s.logger.Info("swap proposed", "swap_request_id", req.ID, "requester_id", req.RequesterID, "item_id", req.ItemID)
	return req, nil
}

// Owner of requested item declines pending request
// Proposal row is locked, so decline and accept racing on it end in exactly one terminal state
func (s *SwapService) Decline(ctx context.Context, proposalID uuid.UUID, actorID uuid.UUID) (models.SwapRequest, error) {
	var declined models.SwapRequest

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		req, err := tx.Swap().GetSwapRequest(ctx, proposalID, true)
		if err != nil {
			return err
		}

		// Ownership goes first: the request state is not exposed to strangers
		item, err := tx.Item().GetItem(ctx, req.ItemID, false)
		switch {
		case err != nil:
			return err
		case item.OwnerID != actorID:
			return apperrors.ErrNotItemOwner
		case !req.IsPending():
			return apperrors.ErrProposalNotPending
		}

		declined, err = tx.Swap().Resolve(ctx, req.ID, models.SwapDeclined, actorID)
		return err
	})
	if err != nil {
		return models.SwapRequest{}, err
	}

	s.logger.Info("swap declined", "swap_request_id", proposalID, "actor_id", actorID)
	return declined, nil
}

// Requests the user made or received, newest first, with the items they reference
func (s *SwapService) List(ctx context.Context, userID uuid.UUID) ([]models.SwapRequestDetails, error) {
	reqs, err := s.storage.Swap().ListSwapRequests(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.withItems(ctx, reqs)
}

// Single request; only its requester and the requested item owner may see it
func (s *SwapService) Get(ctx context.Context, proposalID uuid.UUID, viewerID uuid.UUID) (models.SwapRequestDetails, error) {
	req, err := s.storage.Swap().GetSwapRequest(ctx, proposalID, false)
	if err != nil {
		return models.SwapRequestDetails{}, err
	}

	details, err := s.withItems(ctx, []models.SwapRequest{req})
	if err != nil {
		return models.SwapRequestDetails{}, err
	}

	d := details[0]
	if d.RequesterID != viewerID && d.Item.OwnerID != viewerID {
		return models.SwapRequestDetails{}, fmt.Errorf("swap request %s: %w", proposalID, apperrors.ErrNotAuthorized)
	}

	return d, nil
}

// Load all referenced items in one query
func (s *SwapService) withItems(ctx context.Context, reqs []models.SwapRequest) ([]models.SwapRequestDetails, error) {
	var ids []uuid.UUID
	for _, r := range reqs {
		ids = append(ids, r.ItemID)
		ids = append(ids, r.OfferedItemIDs...)
	}

	items, err := s.storage.Item().GetItems(ctx, uniqueIDs(ids), false)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	details := make([]models.SwapRequestDetails, 0, len(reqs))
	for _, r := range reqs {
		d := models.SwapRequestDetails{
			SwapRequest:  r,
			Item:         byID[r.ItemID],
			OfferedItems: make([]models.Item, 0, len(r.OfferedItemIDs)),
		}
		for _, id := range r.OfferedItemIDs {
			if item, ok := byID[id]; ok {
				d.OfferedItems = append(d.OfferedItems, item)
			}
		}
		details = append(details, d)
	}

	return details, nil
}

// Drop duplicates keeping first occurrence order
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	res := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}
