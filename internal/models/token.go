package models

import (
	"time"

	"github.com/google/uuid"
)

type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time // nil if token not used
}

func (t RefreshToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Access and refresh tokens issued together on register, login or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
