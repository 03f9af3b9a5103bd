package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an identity that owns exactly one account. Immutable once created.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Account holds a user's TENMO bucks balance. The balance is mutated only by
// the ledger's atomic debit/credit and never goes negative. StartingBalance
// records the amount seeded at registration, used by reconciliation.
type Account struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Balance         Money     `json:"balance"`
	StartingBalance Money     `json:"starting_balance"`
	CreatedAt       time.Time `json:"created_at"`
}
