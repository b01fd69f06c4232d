// Package statefile persists the ledger as a single JSON document keyed by account id.
package statefile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/bank/internal/domain"
	"github.com/vadiminshakov/bank/pkg/retrier"
)

const (
	// DefaultPath is used when no data file is configured.
	DefaultPath = "accounts.json"

	jsonIndent = "    "
	filePerm   = 0o644
	dirPerm    = 0o755
)

// errEncode marks failures that a retry cannot fix.
var errEncode = errors.New("encode state")

// State maps account id to its stored representation.
type State map[string]StoredAccount

// StoredAccount is a serializable snapshot of domain.Account. The id is the map key.
type StoredAccount struct {
	Balance      json.Number `json:"balance"`
	Transactions []string    `json:"transactions"`
}

// Store reads and rewrites the state file.
type Store struct {
	mu      sync.Mutex
	path    string
	retrier *retrier.Retrier
}

// NewStore creates a store for the file at path, creating its directory if needed.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, errors.Wrap(err, "create state dir")
		}
	}

	return &Store{
		path: path,
		retrier: retrier.New(retrier.WithRetryIf(func(err error) bool {
			return !errors.Is(err, errEncode) && !errors.Is(err, os.ErrNotExist) &&
				!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		})),
	}, nil
}

// Path returns the location of the state file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state from disk. A missing or empty file yields an empty state.
func (s *Store) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := retrier.DoWithData(s.retrier, context.Background(), func(context.Context) ([]byte, error) {
		return os.ReadFile(s.path)
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}

		return nil, errors.Wrap(err, "read state file")
	}

	if len(payload) == 0 {
		return State{}, nil
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, errors.Wrapf(domain.ErrCorruptStore, "decode %s: %v", s.path, err)
	}
	if state == nil {
		state = State{}
	}

	return state, nil
}

// Save overwrites the state file atomically via temp file and rename.
// Transient write failures are retried until ctx is done.
func (s *Store) Save(ctx context.Context, state State) error {
	payload, err := json.MarshalIndent(state, "", jsonIndent)
	if err != nil {
		return errors.Wrap(errEncode, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retrier.Do(ctx, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		tmp := s.path + ".tmp"
		if err := writeSynced(tmp, payload); err != nil {
			return errors.Wrap(err, "write state temp file")
		}

		if err := os.Rename(tmp, s.path); err != nil {
			return errors.Wrap(err, "persist state")
		}

		return nil
	})
}

func writeSynced(path string, payload []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return err
	}

	if _, err := f.Write(payload); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// NewStoredAccount converts domain.Account into its stored representation.
func NewStoredAccount(acc *domain.Account) StoredAccount {
	records := acc.Transactions()
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, rec.String())
	}

	return StoredAccount{
		Balance:      json.Number(acc.Balance().String()),
		Transactions: lines,
	}
}

// ToAccount reconstructs domain.Account from stored data.
func (sa StoredAccount) ToAccount(id string) (*domain.Account, error) {
	if id == "" {
		return nil, errors.Wrap(domain.ErrCorruptStore, "empty account id")
	}

	balance, err := decimal.NewFromString(sa.Balance.String())
	if err != nil {
		return nil, errors.Wrapf(domain.ErrCorruptStore, "account %s: balance %q", id, sa.Balance.String())
	}

	records := make([]domain.Record, 0, len(sa.Transactions))
	for i, line := range sa.Transactions {
		rec, err := domain.ParseRecord(line)
		if err != nil {
			return nil, errors.Wrapf(domain.ErrCorruptStore, "account %s: transaction %d: %v", id, i, err)
		}
		records = append(records, rec)
	}

	acc, err := domain.RestoreAccount(id, balance, records)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrCorruptStore, "account %s: %v", id, err)
	}

	return acc, nil
}
