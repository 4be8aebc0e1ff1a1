package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	Name           string
	HashedPassword string
	Role           string

	// Current point balance, never negative
	// Changed by ledger only
	Points int64

	// Points granted on registration. Not backed by a transaction
	InitialPoints int64
}
