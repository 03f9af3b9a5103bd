package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tenmoapp/tenmo/internal/domain"
	"github.com/tenmoapp/tenmo/internal/store"
)

// AuthService handles registration and credential checks. Token issuance
// lives at the HTTP edge; this service only deals in verified identities.
type AuthService struct {
	users           store.UserStore
	accounts        *AccountService
	startingBalance domain.Money
}

func NewAuthService(users store.UserStore, accounts *AccountService, startingBalance domain.Money) *AuthService {
	return &AuthService{
		users:           users,
		accounts:        accounts,
		startingBalance: startingBalance,
	}
}

// Register creates a user and opens their account with the configured
// starting balance.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         "user",
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if _, err := s.accounts.OpenAccount(ctx, user.ID, s.startingBalance); err != nil {
		return nil, fmt.Errorf("open account: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and returns the user.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}
