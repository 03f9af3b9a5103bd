// Package store defines the persistence contracts consumed by the services.
// Two adapters exist: an in-memory implementation guarded by per-entity locks
// and a Postgres implementation using row locking.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/tenmoapp/tenmo/internal/domain"
)

// UserStore owns user identities.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// AccountStore is the ledger: it owns balances and is the only component
// allowed to mutate them.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccountByUser(ctx context.Context, userID uuid.UUID) (*domain.Account, error)

	// ApplyTransfer atomically debits from and credits to by amount.
	// It fails with domain.ErrInsufficientFunds if the debit would overdraw,
	// domain.ErrAccountNotFound if either account is missing, and
	// domain.ErrInvalidAmount if amount is not positive. Partial application
	// never occurs, and concurrent calls touching the same account serialize
	// so a balance is never observed negative.
	ApplyTransfer(ctx context.Context, fromUserID, toUserID uuid.UUID, amount domain.Money) error

	// Totals returns the sum of all balances and the sum of all seeded
	// starting balances. Transfers conserve the former, so the two diverging
	// means the ledger is corrupt.
	Totals(ctx context.Context) (balances, seeded domain.Money, err error)
}

// TransferStore owns the append-mostly transfer history. Records are never
// deleted; only the status of a PENDING request may change, exactly once.
type TransferStore interface {
	// CreateTransfer persists a new record. It fails with
	// domain.ErrSameAccount if source and destination are the same user and
	// domain.ErrInvalidAmount if the amount is not positive; nothing is
	// persisted on failure.
	CreateTransfer(ctx context.Context, transfer *domain.Transfer) error
	GetTransfer(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)

	// ListTransfersByUser returns every transfer where the user is source or
	// destination, oldest first.
	ListTransfersByUser(ctx context.Context, userID uuid.UUID) ([]domain.Transfer, error)

	// ListPendingForUser returns the PENDING requests awaiting the user's
	// decision, i.e. where they are the debited party, oldest first.
	ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]domain.Transfer, error)

	// UpdateTransferStatus moves a transfer out of PENDING. The check-and-set
	// is atomic: of two concurrent calls exactly one succeeds and the other
	// fails with domain.ErrInvalidTransition.
	UpdateTransferStatus(ctx context.Context, id uuid.UUID, next domain.TransferStatus) error
}
