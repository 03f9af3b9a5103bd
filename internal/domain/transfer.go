package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferType distinguishes immediately-settled sends from approval-gated
// requests.
type TransferType string

const (
	TransferTypeSend    TransferType = "SEND"
	TransferTypeRequest TransferType = "REQUEST"
)

// TransferStatus is the approval state of a transfer.
type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "PENDING"
	TransferStatusApproved TransferStatus = "APPROVED"
	TransferStatusRejected TransferStatus = "REJECTED"
)

// Sends settle at creation, so they are born APPROVED. Requests are born
// PENDING and move exactly once to APPROVED or REJECTED.
var transferTransitions = map[TransferStatus]map[TransferStatus]struct{}{
	TransferStatusPending: {
		TransferStatusApproved: {},
		TransferStatusRejected: {},
	},
	TransferStatusApproved: {},
	TransferStatusRejected: {},
}

// CanTransition reports whether a transfer may move from current to next.
func CanTransition(current, next TransferStatus) bool {
	nextStates, ok := transferTransitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}

// Terminal reports whether no further transitions are permitted from s.
func Terminal(s TransferStatus) bool {
	return len(transferTransitions[s]) == 0
}

// Transfer is a single movement of TENMO bucks between two users. FromUserID
// is always the debited party; for a REQUEST that party must approve before
// any funds move. All fields except Status are immutable after creation.
type Transfer struct {
	ID         uuid.UUID      `json:"id"`
	Type       TransferType   `json:"type"`
	Status     TransferStatus `json:"status"`
	FromUserID uuid.UUID      `json:"from_user_id"`
	ToUserID   uuid.UUID      `json:"to_user_id"`
	Amount     Money          `json:"amount"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Involves reports whether the user is the source or destination.
func (t *Transfer) Involves(userID uuid.UUID) bool {
	return t.FromUserID == userID || t.ToUserID == userID
}

// AwaitsActionBy reports whether the transfer is pending the given user's
// decision, i.e. they are the party who would be debited on approval.
func (t *Transfer) AwaitsActionBy(userID uuid.UUID) bool {
	return t.Status == TransferStatusPending && t.FromUserID == userID
}
