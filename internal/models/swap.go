package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SwapPending   = "pending"
	SwapCompleted = "completed"
	SwapDeclined  = "declined"
)

type SwapRequest struct {
	ID             uuid.UUID
	RequesterID    uuid.UUID
	ItemID         uuid.UUID
	OfferedItemIDs []uuid.UUID
	Message        *string
	Status         string
	LastActionBy   uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (s SwapRequest) IsPending() bool {
	return s.Status == SwapPending
}

// Swap request with the items it references
// Used for listings only, settlement always reloads items under lock
type SwapRequestDetails struct {
	SwapRequest

	Item         Item
	OfferedItems []Item
}
