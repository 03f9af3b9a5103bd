// Package postgres implements the store contracts on pgx. Ledger atomicity
// comes from row locks: a transfer locks both account rows in id order inside
// one transaction, and request resolution is a single conditional UPDATE.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenmoapp/tenmo/internal/domain"
	"github.com/tenmoapp/tenmo/internal/store"
)

// Store wraps a pgx connection pool.
type Store struct {
	db *pgxpool.Pool
}

// New creates a Postgres-backed store.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, NOW()) RETURNING created_at`
	err := s.db.QueryRow(ctx, query, user.ID, user.Username, user.PasswordHash, user.Role).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user := &domain.User{}
	query := `SELECT id, username, password_hash, role, created_at FROM users WHERE id = $1`
	err := s.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user := &domain.User{}
	query := `SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1`
	err := s.db.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT id, username, password_hash, role, created_at FROM users ORDER BY created_at, id`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `INSERT INTO accounts (id, user_id, balance, starting_balance, created_at)
		VALUES ($1, $2, $3, $4, NOW()) RETURNING created_at`
	err := s.db.QueryRow(ctx, query, account.ID, account.UserID, account.Balance.Micros(), account.StartingBalance.Micros()).Scan(&account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccountByUser(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	account := &domain.Account{}
	var balance, seeded int64
	query := `SELECT id, user_id, balance, starting_balance, created_at FROM accounts WHERE user_id = $1`
	err := s.db.QueryRow(ctx, query, userID).Scan(&account.ID, &account.UserID, &balance, &seeded, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	account.Balance = domain.NewMoney(balance)
	account.StartingBalance = domain.NewMoney(seeded)
	return account, nil
}

func (s *Store) ApplyTransfer(ctx context.Context, fromUserID, toUserID uuid.UUID, amount domain.Money) error {
	if fromUserID == toUserID {
		return domain.ErrSameAccount
	}
	if !amount.Positive() {
		return domain.ErrInvalidAmount
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock both account rows in a consistent order to prevent deadlocks
	// with a concurrent transfer in the opposite direction.
	lockOrder := []uuid.UUID{fromUserID, toUserID}
	if lockOrder[0].String() > lockOrder[1].String() {
		lockOrder[0], lockOrder[1] = lockOrder[1], lockOrder[0]
	}
	for _, id := range lockOrder {
		var locked uuid.UUID
		err := tx.QueryRow(ctx, `SELECT user_id FROM accounts WHERE user_id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrAccountNotFound
			}
			return fmt.Errorf("lock account %s: %w", id, err)
		}
	}

	var fromBalance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE user_id = $1`, fromUserID).Scan(&fromBalance); err != nil {
		return fmt.Errorf("fetch sender balance: %w", err)
	}
	if fromBalance < amount.Micros() {
		return domain.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE user_id = $2`, amount.Micros(), fromUserID); err != nil {
		return fmt.Errorf("debit sender: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE user_id = $2`, amount.Micros(), toUserID); err != nil {
		return fmt.Errorf("credit receiver: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	return nil
}

func (s *Store) Totals(ctx context.Context) (domain.Money, domain.Money, error) {
	var balances, seeded int64
	query := `SELECT COALESCE(SUM(balance), 0), COALESCE(SUM(starting_balance), 0) FROM accounts`
	if err := s.db.QueryRow(ctx, query).Scan(&balances, &seeded); err != nil {
		return 0, 0, fmt.Errorf("sum balances: %w", err)
	}
	return domain.NewMoney(balances), domain.NewMoney(seeded), nil
}

func (s *Store) CreateTransfer(ctx context.Context, t *domain.Transfer) error {
	if t.FromUserID == t.ToUserID {
		return domain.ErrSameAccount
	}
	if !t.Amount.Positive() {
		return domain.ErrInvalidAmount
	}

	query := `INSERT INTO transfers (id, type, status, from_user_id, to_user_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING created_at`
	err := s.db.QueryRow(ctx, query, t.ID, string(t.Type), string(t.Status), t.FromUserID, t.ToUserID, t.Amount.Micros()).Scan(&t.CreatedAt)
	if err != nil {
		// Writers that bypass this adapter still hit the schema CHECKs;
		// translate those violations the same way.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			if strings.Contains(pgErr.ConstraintName, "amount") {
				return domain.ErrInvalidAmount
			}
			return domain.ErrSameAccount
		}
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

func (s *Store) GetTransfer(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	query := `SELECT id, type, status, from_user_id, to_user_id, amount, created_at FROM transfers WHERE id = $1`
	t, err := scanTransfer(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransferNotFound
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return t, nil
}

func (s *Store) ListTransfersByUser(ctx context.Context, userID uuid.UUID) ([]domain.Transfer, error) {
	query := `SELECT id, type, status, from_user_id, to_user_id, amount, created_at
		FROM transfers
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at, id`
	return s.listTransfers(ctx, query, userID)
}

func (s *Store) ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]domain.Transfer, error) {
	query := `SELECT id, type, status, from_user_id, to_user_id, amount, created_at
		FROM transfers
		WHERE from_user_id = $1 AND status = 'PENDING'
		ORDER BY created_at, id`
	return s.listTransfers(ctx, query, userID)
}

func (s *Store) listTransfers(ctx context.Context, query string, userID uuid.UUID) ([]domain.Transfer, error) {
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}

func (s *Store) UpdateTransferStatus(ctx context.Context, id uuid.UUID, next domain.TransferStatus) error {
	if !domain.CanTransition(domain.TransferStatusPending, next) {
		return domain.ErrInvalidTransition
	}

	// Conditional update is the check-and-set: only one of two concurrent
	// resolutions can see status = PENDING.
	tag, err := s.db.Exec(ctx, `UPDATE transfers SET status = $1 WHERE id = $2 AND status = 'PENDING'`, string(next), id)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transfers WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check transfer existence: %w", err)
	}
	if !exists {
		return domain.ErrTransferNotFound
	}
	return domain.ErrInvalidTransition
}

func scanTransfer(row pgx.Row) (*domain.Transfer, error) {
	t := &domain.Transfer{}
	var typ, status string
	var amount int64
	if err := row.Scan(&t.ID, &typ, &status, &t.FromUserID, &t.ToUserID, &amount, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Type = domain.TransferType(typ)
	t.Status = domain.TransferStatus(status)
	t.Amount = domain.NewMoney(amount)
	return t, nil
}

var (
	_ store.UserStore     = (*Store)(nil)
	_ store.AccountStore  = (*Store)(nil)
	_ store.TransferStore = (*Store)(nil)
)
