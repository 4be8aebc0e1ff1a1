package swap

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
)

// Who paid the value difference on settlement
type Direction string

const (
	DirectionNone             Direction = "none"
	DirectionRequesterToOwner Direction = "requester_to_owner"
	DirectionOwnerToRequester Direction = "owner_to_requester"
)

type Settlement struct {
	Request      models.SwapRequest
	Direction    Direction
	Points       int64
	Transactions []models.Transaction
}

func (s Settlement) Message() string {
	switch s.Direction {
	case DirectionRequesterToOwner:
		return fmt.Sprintf("Swap completed! %d points transferred from requester to owner.", s.Points)
	case DirectionOwnerToRequester:
		return fmt.Sprintf("Swap completed! %d points transferred from owner to requester.", s.Points)
	default:
		return "Swap completed and items marked as swapped"
	}
}

// Owner of requested item accepts pending request
// Value difference between requested and offered items is paid by the party receiving more
// All items become swapped and request completed, or nothing changes
//
// Locks are taken in order: request, items by id, balances by user id
func (s *SwapService) Accept(ctx context.Context, proposalID uuid.UUID, actorID uuid.UUID) (Settlement, error) {
	var res Settlement

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		// Concurrent accept or decline of the same request waits here and then sees it resolved
		req, err := tx.Swap().GetSwapRequest(ctx, proposalID, true)
		if err != nil {
			return err
		}

		ids := append([]uuid.UUID{req.ItemID}, req.OfferedItemIDs...)
		locked, err := tx.Item().GetItems(ctx, ids, true)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]models.Item, len(locked))
		for _, item := range locked {
			byID[item.ID] = item
		}

		requested, ok := byID[req.ItemID]
		switch {
		case !ok:
			return fmt.Errorf("requested item: %w", apperrors.ErrItemNotFound)
		case requested.OwnerID != actorID:
			return apperrors.ErrNotItemOwner
		case !req.IsPending():
			return apperrors.ErrProposalNotPending
		case !requested.IsAvailable():
			return fmt.Errorf("requested item: %w", apperrors.ErrItemUnavailable)
		}

		var offeredValue int64
		for _, id := range req.OfferedItemIDs {
			item, ok := byID[id]
			switch {
			case !ok:
				return fmt.Errorf("offered item %s: %w", id, apperrors.ErrItemNotFound)
			case item.OwnerID != req.RequesterID:
				return fmt.Errorf("offered item %s: %w", id, apperrors.ErrOfferedItemNotOwned)
			case !item.IsAvailable():
				return fmt.Errorf("offered item %s: %w", id, apperrors.ErrItemUnavailable)
			}
			offeredValue += item.PointsValue
		}

		difference := requested.PointsValue - offeredValue
		transfer := repository.TransferParams{
			ItemID:            &requested.ID,
			SpentDescription:  "Points paid for swap difference - " + requested.Title,
			EarnedDescription: "Points received for swap difference - " + requested.Title,
		}

		switch {
		case difference > 0:
			res.Direction, res.Points = DirectionRequesterToOwner, difference
			transfer.FromUserID, transfer.ToUserID, transfer.Amount = req.RequesterID, requested.OwnerID, difference
		case difference < 0:
			res.Direction, res.Points = DirectionOwnerToRequester, -difference
			transfer.FromUserID, transfer.ToUserID, transfer.Amount = requested.OwnerID, req.RequesterID, -difference
		default:
			res.Direction = DirectionNone
		}

		if res.Direction != DirectionNone {
			res.Transactions, err = tx.Ledger().Transfer(ctx, transfer)
			if err != nil {
				return err
			}
		}

		updated, err := tx.Item().SetStatus(ctx, ids, models.ItemSwapped)
		switch {
		case err != nil:
			return err
		case updated != int64(len(ids)):
			return fmt.Errorf("%d of %d items marked swapped: %w", updated, len(ids), apperrors.ErrItemNotFound)
		}

		res.Request, err = tx.Swap().Resolve(ctx, req.ID, models.SwapCompleted, actorID)
		return err
	})
	if err != nil {
		return Settlement{}, err
	}

	s.logger.Info("swap accepted",
		"swap_request_id", proposalID,
		"actor_id", actorID,
		"direction", res.Direction,
		"points", res.Points,
	)
	return res, nil
}
