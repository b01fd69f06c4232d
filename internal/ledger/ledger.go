// Package ledger owns the accounts, orchestrates operations that touch them and
// persists the whole state after every mutation.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/gopkg/lang/fastrand"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/bank/internal/domain"
	"github.com/vadiminshakov/bank/internal/events"
	"github.com/vadiminshakov/bank/internal/storage/statefile"
	"github.com/vadiminshakov/bank/internal/storage/transfers"
	"go.uber.org/zap"
)

type stateStore interface {
	Load() (statefile.State, error)
	Save(ctx context.Context, state statefile.State) error
}

type transferJournal interface {
	Prepare(from, to string, amount decimal.Decimal, at time.Time) (*transfers.Intent, error)
	MarkDone(intent *transfers.Intent) error
	MarkFailed(intent *transfers.Intent, cause error) error
	Pending() []*transfers.Intent
	Intents() []transfers.Intent
	Close() error
}

// Ledger holds every account keyed by id.
// All mutations are serialized by one lock held through the persistence write,
// so the state file always reflects a consistent view of every account.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	store    stateStore
	journal  transferJournal
	events   *events.Broadcaster
	l        *zap.Logger
	idLength int
	intn     func(n int) int
	now      func() time.Time
}

// Option configures the Ledger.
type Option func(*Ledger)

// WithJournal enables journaling of transfer intents.
func WithJournal(j transferJournal) Option {
	return func(l *Ledger) {
		l.journal = j
	}
}

// WithBroadcaster publishes balance changes to b.
func WithBroadcaster(b *events.Broadcaster) Option {
	return func(l *Ledger) {
		l.events = b
	}
}

// WithIDLength sets the number of digits in generated account ids.
func WithIDLength(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.idLength = n
		}
	}
}

// WithRandom replaces the random source used for account ids. intn must return a value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(l *Ledger) {
		if intn != nil {
			l.intn = intn
		}
	}
}

// WithClock replaces the time source used for transaction records.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// New loads the ledger from store and reconciles journaled transfers.
// A corrupt state file is reported as domain.ErrCorruptStore.
func New(l *zap.Logger, store stateStore, opts ...Option) (*Ledger, error) {
	if l == nil {
		l = zap.NewNop()
	}
	if store == nil {
		return nil, errors.New("state store is required")
	}

	ledger := &Ledger{
		accounts: make(map[string]*domain.Account),
		store:    store,
		l:        l,
		idLength: defaultIDLength,
		intn:     fastrand.Intn,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(ledger)
	}

	state, err := store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load ledger state")
	}

	for id, stored := range state {
		acc, err := stored.ToAccount(id)
		if err != nil {
			return nil, err
		}
		ledger.accounts[id] = acc
	}

	if err := ledger.reconcileTransfers(); err != nil {
		return nil, errors.Wrap(err, "reconcile transfer journal")
	}

	l.Info("ledger loaded", zap.Int("accounts", len(ledger.accounts)))

	return ledger, nil
}

// Close releases the journal.
func (l *Ledger) Close() error {
	if l.journal == nil {
		return nil
	}

	return l.journal.Close()
}

// CreateAccount opens an account with the given non-negative balance and returns its id.
func (l *Ledger) CreateAccount(ctx context.Context, opening decimal.Decimal) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if opening.IsNegative() {
		return "", domain.ErrInvalidAmount
	}

	id, err := l.generateAccountID()
	if err != nil {
		return "", err
	}

	at := l.now()
	acc, err := domain.NewAccount(id, opening, at)
	if err != nil {
		return "", err
	}

	l.accounts[id] = acc
	if err := l.persist(ctx); err != nil {
		delete(l.accounts, id)
		return "", err
	}

	l.l.Info("account created", zap.String("account", id), zap.String("opening", opening.String()))
	l.publish(acc, domain.RecordOpen, opening, at)

	return id, nil
}

// Lookup returns a copy of the account with the given id.
func (l *Ledger) Lookup(id string) (*domain.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return acc.Clone(), nil
}

// Balance returns the current balance of the account.
func (l *Ledger) Balance(id string) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.accounts[id]
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}

	return acc.Balance(), nil
}

// History returns the transaction records of the account in chronological order.
func (l *Ledger) History(id string) ([]domain.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return acc.Transactions(), nil
}

// IDs returns all account ids in ascending order.
func (l *Ledger) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.accounts))
	for id := range l.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Deposit credits the account and returns its new balance.
func (l *Ledger) Deposit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.mutate(ctx, id, amount, domain.RecordDeposit, (*domain.Account).Deposit)
}

// Withdraw debits the account and returns its new balance.
func (l *Ledger) Withdraw(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.mutate(ctx, id, amount, domain.RecordWithdraw, (*domain.Account).Withdraw)
}

func (l *Ledger) mutate(ctx context.Context, id string, amount decimal.Decimal, kind domain.RecordKind,
	op func(*domain.Account, decimal.Decimal, time.Time) (decimal.Decimal, error)) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[id]
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}

	at := l.now()
	sp := acc.Savepoint()

	balance, err := op(acc, amount, at)
	if err != nil {
		return acc.Balance(), err
	}

	if err := l.persist(ctx); err != nil {
		acc.Rollback(sp)
		return acc.Balance(), err
	}

	l.l.Info("balance changed",
		zap.String("account", id),
		zap.String("kind", kind.String()),
		zap.String("amount", amount.String()),
		zap.String("balance", balance.String()))
	l.publish(acc, kind, amount, at)

	return balance, nil
}

// persist writes every account to the store. Callers must hold the write lock.
func (l *Ledger) persist(ctx context.Context) error {
	state := make(statefile.State, len(l.accounts))
	for id, acc := range l.accounts {
		state[id] = statefile.NewStoredAccount(acc)
	}

	if err := l.store.Save(ctx, state); err != nil {
		l.l.Error("failed to persist ledger", zap.Error(err))
		return errors.Wrap(err, "persist ledger")
	}

	return nil
}

func (l *Ledger) publish(acc *domain.Account, kind domain.RecordKind, amount decimal.Decimal, at time.Time) {
	l.events.Publish(events.BalanceChanged{
		Timestamp: at,
		Account:   acc.ID(),
		Kind:      kind.String(),
		Amount:    amount.String(),
		Balance:   acc.Balance().String(),
	})
}
