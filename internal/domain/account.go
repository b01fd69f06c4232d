// Package domain defines the account model and its transaction records.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a balance plus its ordered transaction history.
// Account is not safe for concurrent use; the ledger serializes access.
type Account struct {
	id           string
	balance      decimal.Decimal
	transactions []Record
}

// Savepoint captures the mutable state of an account so an unpersisted change can be undone.
type Savepoint struct {
	balance decimal.Decimal
	records int
}

// NewAccount opens an account. A positive opening balance is recorded as an open entry.
func NewAccount(id string, opening decimal.Decimal, at time.Time) (*Account, error) {
	if opening.IsNegative() {
		return nil, ErrInvalidAmount
	}

	a := &Account{id: id, balance: opening}
	if opening.IsPositive() {
		a.transactions = append(a.transactions, newRecord(at, RecordOpen, opening, opening, ""))
	}

	return a, nil
}

// RestoreAccount rebuilds an account from persisted state.
func RestoreAccount(id string, balance decimal.Decimal, transactions []Record) (*Account, error) {
	if balance.IsNegative() {
		return nil, ErrInvalidAmount
	}

	records := make([]Record, len(transactions))
	copy(records, transactions)

	return &Account{id: id, balance: balance, transactions: records}, nil
}

// ID returns the account identifier.
func (a *Account) ID() string {
	return a.id
}

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	return a.balance
}

// Transactions returns a copy of the history in chronological order.
func (a *Account) Transactions() []Record {
	out := make([]Record, len(a.transactions))
	copy(out, a.transactions)
	return out
}

// Deposit adds amount to the balance and returns the new balance.
func (a *Account) Deposit(amount decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return a.balance, ErrInvalidAmount
	}

	a.balance = a.balance.Add(amount)
	a.transactions = append(a.transactions, newRecord(at, RecordDeposit, amount, a.balance, ""))

	return a.balance, nil
}

// Withdraw subtracts amount from the balance and returns the new balance.
// The balance never goes below zero: an amount above it is rejected.
func (a *Account) Withdraw(amount decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return a.balance, ErrInvalidAmount
	}
	if amount.GreaterThan(a.balance) {
		return a.balance, ErrInsufficientFunds
	}

	a.balance = a.balance.Sub(amount)
	a.transactions = append(a.transactions, newRecord(at, RecordWithdraw, amount, a.balance, ""))

	return a.balance, nil
}

// RecordTransferOut appends a transfer record pointing at the destination account.
// The debit itself is done by Withdraw.
func (a *Account) RecordTransferOut(amount decimal.Decimal, to string, at time.Time) Record {
	rec := newRecord(at, RecordTransferOut, amount, decimal.Zero, to)
	a.transactions = append(a.transactions, rec)
	return rec
}

// Clone returns an independent copy of the account.
func (a *Account) Clone() *Account {
	return &Account{id: a.id, balance: a.balance, transactions: a.Transactions()}
}

// Savepoint returns the current state for a later Rollback.
func (a *Account) Savepoint() Savepoint {
	return Savepoint{balance: a.balance, records: len(a.transactions)}
}

// Rollback undoes every change made after sp was taken.
// Only changes that were never persisted may be rolled back.
func (a *Account) Rollback(sp Savepoint) {
	a.balance = sp.balance
	if sp.records < len(a.transactions) {
		a.transactions = a.transactions[:sp.records]
	}
}
