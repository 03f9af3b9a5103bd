package domain

import "errors"

var (
	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrAccountNotFound is returned when a user has no ledger account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransferNotFound is returned when the referenced transfer does not exist.
	ErrTransferNotFound = errors.New("transfer not found")

	// ErrInvalidAmount is returned for amounts that are zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds is returned when a debit would overdraw an account.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnauthorized is returned when the acting user is not entitled to the
	// operation, e.g. resolving a request they are not the debited party of.
	ErrUnauthorized = errors.New("actor not authorized for this transfer")

	// ErrInvalidTransition is returned when a transfer is not in the state the
	// operation requires. Approved and rejected transfers are terminal.
	ErrInvalidTransition = errors.New("invalid transfer status transition")

	// ErrSameAccount is returned when source and destination are the same user.
	ErrSameAccount = errors.New("cannot transfer to the same account")

	// ErrUsernameTaken is returned when registering a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrAccountExists is returned when opening a second account for a user.
	ErrAccountExists = errors.New("account already exists for user")

	// ErrInvalidCredentials is returned on failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
