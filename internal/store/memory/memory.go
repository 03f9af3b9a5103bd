// Package memory implements the store contracts with in-process maps. Account
// mutation is guarded by one mutex per account, taken in id order when a
// transfer touches two accounts, so concurrent transfers on disjoint accounts
// do not serialize against each other.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tenmoapp/tenmo/internal/domain"
	"github.com/tenmoapp/tenmo/internal/store"
)

type account struct {
	mu  sync.Mutex
	acc domain.Account
}

// Store holds all in-memory state. It implements store.UserStore,
// store.AccountStore, and store.TransferStore.
type Store struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]*domain.User
	usernames map[string]uuid.UUID
	userOrder []uuid.UUID
	accounts  map[uuid.UUID]*account // keyed by owning user id

	transferMu    sync.RWMutex
	transfers     map[uuid.UUID]*domain.Transfer
	transferOrder []uuid.UUID
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:     make(map[uuid.UUID]*domain.User),
		usernames: make(map[string]uuid.UUID),
		accounts:  make(map[uuid.UUID]*account),
		transfers: make(map[uuid.UUID]*domain.Transfer),
	}
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usernames[user.Username]; ok {
		return domain.ErrUsernameTaken
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	clone := *user
	s.users[user.ID] = &clone
	s.usernames[user.Username] = user.ID
	s.userOrder = append(s.userOrder, user.ID)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernames[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *s.users[id]
	return &clone, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, *s.users[id])
	}
	return out, nil
}

func (s *Store) CreateAccount(ctx context.Context, acc *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acc.UserID]; ok {
		return domain.ErrAccountExists
	}
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}
	s.accounts[acc.UserID] = &account{acc: *acc}
	return nil
}

func (s *Store) GetAccountByUser(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	s.mu.RLock()
	entry, ok := s.accounts[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	clone := entry.acc
	return &clone, nil
}

func (s *Store) ApplyTransfer(ctx context.Context, fromUserID, toUserID uuid.UUID, amount domain.Money) error {
	if fromUserID == toUserID {
		// Also guards the two-lock acquisition below against self-deadlock.
		return domain.ErrSameAccount
	}
	if !amount.Positive() {
		return domain.ErrInvalidAmount
	}

	s.mu.RLock()
	from, fromOK := s.accounts[fromUserID]
	to, toOK := s.accounts[toUserID]
	s.mu.RUnlock()
	if !fromOK || !toOK {
		return domain.ErrAccountNotFound
	}

	// Lock both accounts in id order to avoid deadlock with a concurrent
	// transfer going the opposite direction.
	first, second := from, to
	if fromUserID.String() > toUserID.String() {
		first, second = to, from
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if from.acc.Balance < amount {
		return domain.ErrInsufficientFunds
	}
	from.acc.Balance -= amount
	to.acc.Balance += amount
	return nil
}

func (s *Store) Totals(ctx context.Context) (domain.Money, domain.Money, error) {
	s.mu.RLock()
	entries := make([]*account, 0, len(s.accounts))
	for _, entry := range s.accounts {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	// Take every account lock, in id order, so no transfer is caught
	// half-applied in the sums.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].acc.UserID.String() < entries[j].acc.UserID.String()
	})
	for _, entry := range entries {
		entry.mu.Lock()
	}
	defer func() {
		for _, entry := range entries {
			entry.mu.Unlock()
		}
	}()

	var balances, seeded domain.Money
	for _, entry := range entries {
		balances += entry.acc.Balance
		seeded += entry.acc.StartingBalance
	}
	return balances, seeded, nil
}

func (s *Store) CreateTransfer(ctx context.Context, t *domain.Transfer) error {
	if t.FromUserID == t.ToUserID {
		return domain.ErrSameAccount
	}
	if !t.Amount.Positive() {
		return domain.ErrInvalidAmount
	}
	s.transferMu.Lock()
	defer s.transferMu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	clone := *t
	s.transfers[t.ID] = &clone
	s.transferOrder = append(s.transferOrder, t.ID)
	return nil
}

func (s *Store) GetTransfer(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	s.transferMu.RLock()
	defer s.transferMu.RUnlock()
	t, ok := s.transfers[id]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *Store) ListTransfersByUser(ctx context.Context, userID uuid.UUID) ([]domain.Transfer, error) {
	s.transferMu.RLock()
	defer s.transferMu.RUnlock()
	var out []domain.Transfer
	for _, id := range s.transferOrder {
		if t := s.transfers[id]; t.Involves(userID) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *Store) ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]domain.Transfer, error) {
	s.transferMu.RLock()
	defer s.transferMu.RUnlock()
	var out []domain.Transfer
	for _, id := range s.transferOrder {
		if t := s.transfers[id]; t.AwaitsActionBy(userID) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *Store) UpdateTransferStatus(ctx context.Context, id uuid.UUID, next domain.TransferStatus) error {
	s.transferMu.Lock()
	defer s.transferMu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return domain.ErrTransferNotFound
	}
	if !domain.CanTransition(t.Status, next) {
		return domain.ErrInvalidTransition
	}
	t.Status = next
	return nil
}

var (
	_ store.UserStore     = (*Store)(nil)
	_ store.AccountStore  = (*Store)(nil)
	_ store.TransferStore = (*Store)(nil)
)
