package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ItemAvailable = "available"
	ItemPending   = "pending"
	ItemSwapped   = "swapped"
	ItemRedeemed  = "redeemed"
)

var ItemStatuses = []string{ItemAvailable, ItemPending, ItemSwapped, ItemRedeemed}

type Item struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Title       string
	Description string
	Category    string
	Size        string
	Condition   string
	PointsValue int64
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i Item) IsAvailable() bool {
	return i.Status == ItemAvailable
}
