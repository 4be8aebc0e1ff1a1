package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TransactionTypeEarned = "earned"
	TransactionTypeSpent  = "spent"
)

// Point transaction is immutable once stored
// Amount is signed: negative for spent, positive for earned
type Transaction struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	UserID      uuid.UUID
	Type        string
	Amount      int64
	Description string
	ItemID      *uuid.UUID
}
