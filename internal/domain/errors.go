package domain

import "github.com/pkg/errors"

var (
	// ErrInvalidAmount is returned for a non-positive amount (or a negative opening balance).
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInsufficientFunds is returned when a withdrawal or transfer exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAccountNotFound is returned for an unknown account id.
	ErrAccountNotFound = errors.New("account not found")
	// ErrSameAccount is returned when a transfer names the same account twice.
	ErrSameAccount = errors.New("source and destination accounts are the same")
	// ErrCorruptStore is returned when the persisted state cannot be parsed.
	ErrCorruptStore = errors.New("corrupt store")
)
