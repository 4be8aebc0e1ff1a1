package item

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
)

type CreateParams struct {
	Title       string
	Description string
	Category    string
	Size        string
	Condition   string
	PointsValue int64
}

type ItemService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *ItemService {
	return &ItemService{storage: storage}
}

// List new available item owned by ownerID
func (s *ItemService) Create(ctx context.Context, ownerID uuid.UUID, p CreateParams) (models.Item, error) {
	title := strings.TrimSpace(p.Title)
	switch {
	case title == "":
		return models.Item{}, fmt.Errorf("title is required: %w", apperrors.ErrInvalidInput)
	case p.PointsValue < 0:
		return models.Item{}, fmt.Errorf("points value must not be negative: %w", apperrors.ErrInvalidInput)
	}

	return s.storage.Item().CreateItem(ctx, repository.CreateItemParams{
		OwnerID:     ownerID,
		Title:       title,
		Description: p.Description,
		Category:    p.Category,
		Size:        p.Size,
		Condition:   p.Condition,
		PointsValue: p.PointsValue,
	})
}

func (s *ItemService) Get(ctx context.Context, itemID uuid.UUID) (models.Item, error) {
	return s.storage.Item().GetItem(ctx, itemID, false)
}

// Items matching filter, newest first
func (s *ItemService) List(ctx context.Context, filter repository.ItemFilter) ([]models.Item, error) {
	for _, status := range filter.Statuses {
		if !slices.Contains(models.ItemStatuses, status) {
			return nil, fmt.Errorf("unknown item status %q: %w", status, apperrors.ErrInvalidInput)
		}
	}
	filter.Search = strings.TrimSpace(filter.Search)

	return s.storage.Item().ListItems(ctx, filter)
}
