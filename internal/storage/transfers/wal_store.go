// Package transfers journals transfer intents in a write-ahead log so a transfer
// interrupted by a crash can be reconciled on the next start.
package transfers

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"
)

const (
	// DefaultDir is used when no journal directory is configured.
	DefaultDir = "./wal/transfers"

	intentKeyPrefix = "transfer_intent_"
	segmentLimit    = 1000
	maxSegments     = 100
	dirPermissions  = 0o755
)

// Status is the lifecycle state of an intent.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Intent describes a transfer before it is applied.
type Intent struct {
	ID     string          `json:"id"`
	Status Status          `json:"status"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Time   time.Time       `json:"time"`
	Error  string          `json:"error,omitempty"`
}

// WALStore keeps transfer intents in a WAL and indexes the latest state of each.
type WALStore struct {
	mu      sync.Mutex
	wal     *gowal.Wal
	intents []*Intent
	index   map[string]*Intent
}

// NewWALStore opens the journal under dir and replays the intents it holds.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to ensure journal directory %s", dir)
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "transfer_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init transfer journal WAL")
	}

	s := &WALStore{
		wal:   wal,
		index: make(map[string]*Intent),
	}

	for msg := range wal.Iterator() {
		if !strings.HasPrefix(msg.Key, intentKeyPrefix) {
			continue
		}

		var intent Intent
		if err := json.Unmarshal(msg.Value, &intent); err != nil {
			wal.Close()
			return nil, errors.Wrapf(err, "decode transfer intent %s", msg.Key)
		}

		if existing, ok := s.index[intent.ID]; ok {
			*existing = intent
			continue
		}

		intentCopy := intent
		s.intents = append(s.intents, &intentCopy)
		s.index[intentCopy.ID] = &intentCopy
	}

	return s, nil
}

// Prepare journals a pending intent for a transfer about to be persisted.
func (s *WALStore) Prepare(from, to string, amount decimal.Decimal, at time.Time) (*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent := &Intent{
		ID:     uuid.New().String(),
		Status: StatusPending,
		From:   from,
		To:     to,
		Amount: amount,
		Time:   at,
	}

	if err := s.persist(intent); err != nil {
		return nil, err
	}

	s.intents = append(s.intents, intent)
	s.index[intent.ID] = intent

	return intent, nil
}

// MarkDone records that the transfer reached the state file.
func (s *WALStore) MarkDone(intent *Intent) error {
	if intent == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	intent.Status = StatusDone
	intent.Error = ""

	return s.persist(intent)
}

// MarkFailed records that the transfer was not applied.
func (s *WALStore) MarkFailed(intent *Intent, cause error) error {
	if intent == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	intent.Status = StatusFailed
	if cause != nil {
		intent.Error = cause.Error()
	} else {
		intent.Error = ""
	}

	return s.persist(intent)
}

// Pending returns intents that were neither completed nor failed.
func (s *WALStore) Pending() []*Intent {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]*Intent, 0)
	for _, it := range s.intents {
		if it.Status == StatusPending {
			pending = append(pending, it)
		}
	}

	return pending
}

// Intents returns copies of all known intents in journal order.
func (s *WALStore) Intents() []Intent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Intent, 0, len(s.intents))
	for _, it := range s.intents {
		out = append(out, *it)
	}

	return out
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("transfer journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}

func (s *WALStore) persist(intent *Intent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return errors.Wrap(err, "failed to marshal transfer intent")
	}

	key := fmt.Sprintf("%s%s", intentKeyPrefix, intent.ID)
	nextIndex := s.wal.CurrentIndex() + 1

	return errors.Wrapf(s.wal.Write(nextIndex, key, data), "failed to journal transfer intent %s", intent.ID)
}
