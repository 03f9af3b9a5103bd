package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tenmoapp/tenmo/internal/store/memory"
)

func TestReconciliationBalancedAfterTransfers(t *testing.T) {
	mem := memory.New()
	accountSvc := NewAccountService(mem)
	transferSvc := NewTransferService(mem, mem)
	reconcileSvc := NewReconciliationService(mem)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	_, err := accountSvc.OpenAccount(ctx, alice, money(t, "1000.00"))
	require.NoError(t, err)
	_, err = accountSvc.OpenAccount(ctx, bob, money(t, "1000.00"))
	require.NoError(t, err)

	_, err = transferSvc.CreateSend(ctx, alice, alice, bob, money(t, "250.00"))
	require.NoError(t, err)
	tr, err := transferSvc.CreateRequest(ctx, alice, bob, alice, money(t, "100.00"))
	require.NoError(t, err)
	_, err = transferSvc.ResolveRequest(ctx, tr.ID, bob, "APPROVED")
	require.NoError(t, err)

	require.NoError(t, reconcileSvc.Run(ctx))

	balances, seeded, err := mem.Totals(ctx)
	require.NoError(t, err)
	require.Equal(t, seeded, balances)
}

func TestReconciliationEmptyLedger(t *testing.T) {
	reconcileSvc := NewReconciliationService(memory.New())
	require.NoError(t, reconcileSvc.Run(context.Background()))
}
