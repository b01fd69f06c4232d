package ledger

import (
	"github.com/pkg/errors"
	"github.com/vadiminshakov/bank/internal/domain"
	"github.com/vadiminshakov/bank/internal/storage/transfers"
	"go.uber.org/zap"
)

var errNotApplied = errors.New("transfer was not applied before shutdown")

type transferKey struct {
	from   string
	to     string
	amount string
	at     int64
}

func intentKey(it transfers.Intent) transferKey {
	return transferKey{from: it.From, to: it.To, amount: it.Amount.String(), at: it.Time.Unix()}
}

func recordKey(from string, rec domain.Record) transferKey {
	return transferKey{from: from, to: rec.Counterparty, amount: rec.Amount.String(), at: rec.Time.Unix()}
}

// reconcileTransfers resolves intents left pending by a crash. An intent is done when
// the source history holds more matching transfer records than already-done intents
// claim; otherwise the state file never received it and the intent is failed.
func (l *Ledger) reconcileTransfers() error {
	if l.journal == nil {
		return nil
	}

	pending := l.journal.Pending()
	if len(pending) == 0 {
		return nil
	}

	l.l.Info("Reconciling pending transfer intents", zap.Int("count", len(pending)))

	claimed := make(map[transferKey]int)
	for _, it := range l.journal.Intents() {
		if it.Status == transfers.StatusDone {
			claimed[intentKey(it)]++
		}
	}

	recorded := make(map[transferKey]int)
	for id, acc := range l.accounts {
		for _, rec := range acc.Transactions() {
			if rec.Kind == domain.RecordTransferOut {
				recorded[recordKey(id, rec)]++
			}
		}
	}

	for _, intent := range pending {
		key := intentKey(*intent)

		if recorded[key] > claimed[key] {
			claimed[key]++
			if err := l.journal.MarkDone(intent); err != nil {
				return errors.Wrapf(err, "failed to mark intent as done: %s", intent.ID)
			}
			l.l.Info("pending transfer found in state, marked done", zap.String("intent_id", intent.ID))
			continue
		}

		if err := l.journal.MarkFailed(intent, errNotApplied); err != nil {
			return errors.Wrapf(err, "failed to mark intent as failed: %s", intent.ID)
		}
		l.l.Warn("pending transfer missing from state, marked failed",
			zap.String("intent_id", intent.ID),
			zap.String("from", intent.From),
			zap.String("to", intent.To),
			zap.String("amount", intent.Amount.String()))
	}

	return nil
}
