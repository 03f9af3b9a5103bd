package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/tenmoapp/tenmo/internal/domain"
	"github.com/tenmoapp/tenmo/internal/store"
)

// AccountService exposes read access to balances and opens accounts at
// registration time.
type AccountService struct {
	accounts store.AccountStore
}

func NewAccountService(accounts store.AccountStore) *AccountService {
	return &AccountService{accounts: accounts}
}

func (s *AccountService) GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	return s.accounts.GetAccountByUser(ctx, userID)
}

// OpenAccount creates the user's single account seeded with the starting
// balance.
func (s *AccountService) OpenAccount(ctx context.Context, userID uuid.UUID, startingBalance domain.Money) (*domain.Account, error) {
	account := &domain.Account{
		ID:              uuid.New(),
		UserID:          userID,
		Balance:         startingBalance,
		StartingBalance: startingBalance,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
