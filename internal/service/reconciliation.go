package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tenmoapp/tenmo/internal/observability"
	"github.com/tenmoapp/tenmo/internal/store"
)

// ReconciliationService verifies the conservation invariant: transfers move
// value between accounts but never create or destroy it, so the sum of all
// balances must equal the sum of all seeded starting balances.
type ReconciliationService struct {
	accounts store.AccountStore
}

func NewReconciliationService(accounts store.AccountStore) *ReconciliationService {
	return &ReconciliationService{accounts: accounts}
}

// Run performs one conservation check.
func (s *ReconciliationService) Run(ctx context.Context) error {
	balances, seeded, err := s.accounts.Totals(ctx)
	if err != nil {
		return fmt.Errorf("load balance totals: %w", err)
	}

	if balances != seeded {
		observability.IncrementLedgerImbalance()
		zap.L().Error("CRITICAL: ledger imbalance detected",
			zap.String("balance_sum", balances.String()),
			zap.String("seeded_sum", seeded.String()),
		)
		return nil
	}

	zap.L().Info("ledger balanced", zap.String("balance_sum", balances.String()))
	return nil
}
