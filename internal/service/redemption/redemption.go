package redemption

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/logger"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
)

const SuccessMessage = "Item redeemed successfully"

// Outcome of successful redemption
type Redemption struct {
	Item         models.Item
	BuyerID      uuid.UUID
	Points       int64
	Transactions []models.Transaction
}

type RedemptionService struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewService(storage repository.Storage, l logger.Logger) *RedemptionService {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &RedemptionService{storage: storage, logger: l}
}

// Buy item for its points value
// Either item becomes redeemed and points are moved to the owner, or nothing changes
func (s *RedemptionService) Redeem(ctx context.Context, itemID uuid.UUID, buyerID uuid.UUID) (Redemption, error) {
	var res Redemption

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		// Concurrent redeem or swap of the same item waits here and then sees it unavailable
		item, err := tx.Item().GetItem(ctx, itemID, true)
		switch {
		case errors.Is(err, apperrors.ErrItemNotFound):
			return fmt.Errorf("item %s: %w", itemID, apperrors.ErrItemUnavailable)
		case err != nil:
			return err
		case !item.IsAvailable():
			return apperrors.ErrItemUnavailable
		case item.OwnerID == buyerID:
			return apperrors.ErrSelfTransaction
		}

		if _, err := tx.Ledger().GetBalance(ctx, buyerID, false); err != nil {
			return err
		}

		// Free items still leave the spent/earned pair in both histories
		transactions, err := tx.Ledger().Transfer(ctx, repository.TransferParams{
			FromUserID:        buyerID,
			ToUserID:          item.OwnerID,
			Amount:            item.PointsValue,
			ItemID:            &item.ID,
			SpentDescription:  "Redeemed item: " + item.Title,
			EarnedDescription: "Sold item: " + item.Title,
		})
		if err != nil {
			return err
		}

		if _, err := tx.Item().SetStatus(ctx, []uuid.UUID{item.ID}, models.ItemRedeemed); err != nil {
			return err
		}
		item.Status = models.ItemRedeemed

		res = Redemption{Item: item, BuyerID: buyerID, Points: item.PointsValue, Transactions: transactions}
		return nil
	})
	if err != nil {
		return Redemption{}, err
	}

	s.logger.Info("item redeemed", "item_id", itemID, "buyer_id", buyerID, "seller_id", res.Item.OwnerID, "points", res.Points)
	return res, nil
}
