package postgres

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenmoapp/tenmo/internal/domain"
	"github.com/tenmoapp/tenmo/internal/testutil/dblock"
)

// These tests run against a real database and are skipped unless DATABASE_URL
// is set. The dblock listener serializes packages sharing the database.
func TestMain(m *testing.M) {
	if os.Getenv("DATABASE_URL") == "" {
		os.Exit(m.Run())
	}
	release := dblock.Acquire()
	code := m.Run()
	release()
	os.Exit(code)
}

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))

	_, err = pool.Exec(ctx, `TRUNCATE transfers, accounts, users, idempotency_keys CASCADE`)
	require.NoError(t, err)
	return pool
}

func seedUserWithAccount(t *testing.T, s *Store, username string, balance domain.Money) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Username: username, PasswordHash: "x", Role: "user"}
	require.NoError(t, s.CreateUser(ctx, user))
	require.NoError(t, s.CreateAccount(ctx, &domain.Account{
		ID:              uuid.New(),
		UserID:          user.ID,
		Balance:         balance,
		StartingBalance: balance,
	}))
	return user.ID
}

func TestPostgresUserRoundTrip(t *testing.T) {
	s := New(testPool(t))
	ctx := context.Background()

	user := &domain.User{ID: uuid.New(), Username: "alice", PasswordHash: "hash", Role: "user"}
	require.NoError(t, s.CreateUser(ctx, user))
	assert.False(t, user.CreatedAt.IsZero())

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	got, err = s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	err = s.CreateUser(ctx, &domain.User{ID: uuid.New(), Username: "alice", PasswordHash: "other", Role: "user"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	_, err = s.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestPostgresApplyTransfer(t *testing.T) {
	s := New(testPool(t))
	ctx := context.Background()
	alice := seedUserWithAccount(t, s, "alice", domain.NewMoney(100_000_000))
	bob := seedUserWithAccount(t, s, "bob", domain.NewMoney(100_000_000))

	require.NoError(t, s.ApplyTransfer(ctx, alice, bob, domain.NewMoney(40_000_000)))

	a, err := s.GetAccountByUser(ctx, alice)
	require.NoError(t, err)
	b, err := s.GetAccountByUser(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, domain.NewMoney(60_000_000), a.Balance)
	assert.Equal(t, domain.NewMoney(140_000_000), b.Balance)

	err = s.ApplyTransfer(ctx, alice, bob, domain.NewMoney(60_000_001))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	a, _ = s.GetAccountByUser(ctx, alice)
	assert.Equal(t, domain.NewMoney(60_000_000), a.Balance)

	err = s.ApplyTransfer(ctx, alice, uuid.New(), domain.NewMoney(1))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestPostgresApplyTransferConcurrentBidirectional(t *testing.T) {
	s := New(testPool(t))
	ctx := context.Background()
	alice := seedUserWithAccount(t, s, "alice", domain.NewMoney(1_000_000_000))
	bob := seedUserWithAccount(t, s, "bob", domain.NewMoney(1_000_000_000))

	const iterations = 25
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			_ = s.ApplyTransfer(ctx, alice, bob, domain.NewMoney(1_000_000))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			_ = s.ApplyTransfer(ctx, bob, alice, domain.NewMoney(1_000_000))
		}
	}()
	wg.Wait()

	balances, seeded, err := s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, seeded, balances)
}

func TestPostgresCreateTransferValidation(t *testing.T) {
	s := New(testPool(t))
	ctx := context.Background()
	alice := seedUserWithAccount(t, s, "alice", domain.NewMoney(100_000_000))
	bob := seedUserWithAccount(t, s, "bob", domain.NewMoney(100_000_000))

	err := s.CreateTransfer(ctx, &domain.Transfer{
		ID:         uuid.New(),
		Type:       domain.TransferTypeSend,
		Status:     domain.TransferStatusApproved,
		FromUserID: alice,
		ToUserID:   alice,
		Amount:     domain.NewMoney(1_000_000),
	})
	assert.ErrorIs(t, err, domain.ErrSameAccount)

	err = s.CreateTransfer(ctx, &domain.Transfer{
		ID:         uuid.New(),
		Type:       domain.TransferTypeRequest,
		Status:     domain.TransferStatusPending,
		FromUserID: alice,
		ToUserID:   bob,
		Amount:     domain.NewMoney(0),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	err = s.ApplyTransfer(ctx, alice, alice, domain.NewMoney(1_000_000))
	assert.ErrorIs(t, err, domain.ErrSameAccount)

	history, err := s.ListTransfersByUser(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPostgresTransferLifecycle(t *testing.T) {
	s := New(testPool(t))
	ctx := context.Background()
	alice := seedUserWithAccount(t, s, "alice", domain.NewMoney(100_000_000))
	bob := seedUserWithAccount(t, s, "bob", domain.NewMoney(100_000_000))

	tr := &domain.Transfer{
		ID:         uuid.New(),
		Type:       domain.TransferTypeRequest,
		Status:     domain.TransferStatusPending,
		FromUserID: alice,
		ToUserID:   bob,
		Amount:     domain.NewMoney(25_000_000),
	}
	require.NoError(t, s.CreateTransfer(ctx, tr))
	assert.False(t, tr.CreatedAt.IsZero())

	pending, err := s.ListPendingForUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// The credited party has nothing pending.
	pending, err = s.ListPendingForUser(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.UpdateTransferStatus(ctx, tr.ID, domain.TransferStatusApproved))

	got, err := s.GetTransfer(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusApproved, got.Status)

	err = s.UpdateTransferStatus(ctx, tr.ID, domain.TransferStatusRejected)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	err = s.UpdateTransferStatus(ctx, uuid.New(), domain.TransferStatusApproved)
	assert.ErrorIs(t, err, domain.ErrTransferNotFound)

	history, err := s.ListTransfersByUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, tr.ID, history[0].ID)
}

func TestPostgresUpdateTransferStatusSingleWinner(t *testing.T) {
	s := New(testPool(t))
	ctx := context.Background()
	alice := seedUserWithAccount(t, s, "alice", domain.NewMoney(100_000_000))
	bob := seedUserWithAccount(t, s, "bob", domain.NewMoney(100_000_000))

	tr := &domain.Transfer{
		ID:         uuid.New(),
		Type:       domain.TransferTypeRequest,
		Status:     domain.TransferStatusPending,
		FromUserID: alice,
		ToUserID:   bob,
		Amount:     domain.NewMoney(25_000_000),
	}
	require.NoError(t, s.CreateTransfer(ctx, tr))

	const racers = 8
	var wg sync.WaitGroup
	var winsMu sync.Mutex
	wins := 0
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		decision := domain.TransferStatusApproved
		if i%2 == 1 {
			decision = domain.TransferStatusRejected
		}
		go func(d domain.TransferStatus) {
			defer wg.Done()
			if err := s.UpdateTransferStatus(ctx, tr.ID, d); err == nil {
				winsMu.Lock()
				wins++
				winsMu.Unlock()
			}
		}(decision)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
