package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tenmoapp/tenmo/internal/domain"
	"github.com/tenmoapp/tenmo/internal/store"
)

// TransferService is the transfer workflow engine: it enforces the business
// rules around creation and settlement and is the sole writer composing
// ledger and transfer-store operations.
//
// Every operation takes the authenticated actor explicitly and re-validates
// authorization itself; it never trusts caller UI state.
type TransferService struct {
	accounts  store.AccountStore
	transfers store.TransferStore

	// resolveLocks makes the load/check/settle/commit sequence of
	// ResolveRequest atomic per transfer id within this process. The store's
	// conditional status update backstops it across processes.
	resolveLocks *keyedMutex
}

// NewTransferService creates the workflow engine over the given stores.
func NewTransferService(accounts store.AccountStore, transfers store.TransferStore) *TransferService {
	return &TransferService{
		accounts:     accounts,
		transfers:    transfers,
		resolveLocks: newKeyedMutex(),
	}
}

// CreateSend moves funds from the actor to another user immediately. The
// ledger is applied first; the record is only written once funds have moved,
// so an insufficient-funds send leaves no trace. If the record write fails
// after settlement, the ledger effect is compensated by a reverse transfer.
func (s *TransferService) CreateSend(ctx context.Context, actorID, fromUserID, toUserID uuid.UUID, amount domain.Money) (*domain.Transfer, error) {
	if err := validateParties(actorID, fromUserID, fromUserID, toUserID, amount); err != nil {
		return nil, err
	}

	if err := s.accounts.ApplyTransfer(ctx, fromUserID, toUserID, amount); err != nil {
		return nil, err
	}

	transfer := &domain.Transfer{
		ID:         uuid.New(),
		Type:       domain.TransferTypeSend,
		Status:     domain.TransferStatusApproved,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Amount:     amount,
	}
	if err := s.transfers.CreateTransfer(ctx, transfer); err != nil {
		if revErr := s.accounts.ApplyTransfer(ctx, toUserID, fromUserID, amount); revErr != nil {
			return nil, fmt.Errorf("record send (ledger compensation also failed: %v): %w", revErr, err)
		}
		return nil, fmt.Errorf("record send: %w", err)
	}
	return transfer, nil
}

// CreateRequest records a proposal that fromUserID pay the actor. No funds
// move until the debited party approves, so a requester can never reserve or
// lock another user's balance.
func (s *TransferService) CreateRequest(ctx context.Context, actorID, fromUserID, toUserID uuid.UUID, amount domain.Money) (*domain.Transfer, error) {
	if err := validateParties(actorID, toUserID, fromUserID, toUserID, amount); err != nil {
		return nil, err
	}

	// The debited party must at least exist; their balance is checked at
	// approval time, not now.
	if _, err := s.accounts.GetAccountByUser(ctx, fromUserID); err != nil {
		return nil, err
	}

	transfer := &domain.Transfer{
		ID:         uuid.New(),
		Type:       domain.TransferTypeRequest,
		Status:     domain.TransferStatusPending,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Amount:     amount,
	}
	if err := s.transfers.CreateTransfer(ctx, transfer); err != nil {
		return nil, fmt.Errorf("record request: %w", err)
	}
	return transfer, nil
}

// ResolveRequest applies the debited party's decision to a pending request.
// Only domain.TransferStatusApproved or domain.TransferStatusRejected are
// accepted, both terminal. An approval that fails for insufficient funds
// leaves the request PENDING so the actor can retry later or reject.
func (s *TransferService) ResolveRequest(ctx context.Context, transferID, actorID uuid.UUID, decision domain.TransferStatus) (*domain.Transfer, error) {
	if !domain.CanTransition(domain.TransferStatusPending, decision) {
		return nil, domain.ErrInvalidTransition
	}

	unlock := s.resolveLocks.Lock(transferID)
	defer unlock()

	transfer, err := s.transfers.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if transfer.Status != domain.TransferStatusPending {
		return nil, domain.ErrInvalidTransition
	}
	if transfer.FromUserID != actorID {
		// Only the party whose funds would be debited may decide.
		return nil, domain.ErrUnauthorized
	}

	if decision == domain.TransferStatusApproved {
		if err := s.accounts.ApplyTransfer(ctx, transfer.FromUserID, transfer.ToUserID, transfer.Amount); err != nil {
			return nil, err
		}
	}

	if err := s.transfers.UpdateTransferStatus(ctx, transferID, decision); err != nil {
		if decision == domain.TransferStatusApproved {
			if revErr := s.accounts.ApplyTransfer(ctx, transfer.ToUserID, transfer.FromUserID, transfer.Amount); revErr != nil {
				return nil, fmt.Errorf("commit decision (ledger compensation also failed: %v): %w", revErr, err)
			}
		}
		return nil, err
	}

	transfer.Status = decision
	return transfer, nil
}

// GetTransferForUser loads a transfer, restricted to its two participants.
func (s *TransferService) GetTransferForUser(ctx context.Context, transferID, actorID uuid.UUID) (*domain.Transfer, error) {
	transfer, err := s.transfers.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if !transfer.Involves(actorID) {
		return nil, domain.ErrUnauthorized
	}
	return transfer, nil
}

// ListTransfers returns the user's full history, oldest first.
func (s *TransferService) ListTransfers(ctx context.Context, userID uuid.UUID) ([]domain.Transfer, error) {
	return s.transfers.ListTransfersByUser(ctx, userID)
}

// ListPending returns the requests awaiting the user's decision.
func (s *TransferService) ListPending(ctx context.Context, userID uuid.UUID) ([]domain.Transfer, error) {
	return s.transfers.ListPendingForUser(ctx, userID)
}

func validateParties(actorID, requiredActor, fromUserID, toUserID uuid.UUID, amount domain.Money) error {
	if actorID != requiredActor {
		return domain.ErrUnauthorized
	}
	if fromUserID == toUserID {
		return domain.ErrSameAccount
	}
	if !amount.Positive() {
		return domain.ErrInvalidAmount
	}
	return nil
}
