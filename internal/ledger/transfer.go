package ledger

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/bank/internal/domain"
	"github.com/vadiminshakov/bank/internal/storage/transfers"
	"go.uber.org/zap"
)

// Transfer moves amount from one account to another.
//
// The source is debited first; only if that succeeds is the destination credited
// and a transfer record appended to the source. A rejected debit leaves both
// accounts untouched and its error (domain.ErrInvalidAmount or
// domain.ErrInsufficientFunds) is returned as is.
//
// Both accounts are updated in memory and then written with a single state file
// write, so no state with only one side applied is ever persisted. The intent is
// journaled before the write and resolved after it.
func (l *Ledger) Transfer(ctx context.Context, amount decimal.Decimal, fromID, toID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	from, ok := l.accounts[fromID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	to, ok := l.accounts[toID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if fromID == toID {
		return domain.ErrSameAccount
	}

	at := l.now()
	fromSP, toSP := from.Savepoint(), to.Savepoint()
	rollback := func() {
		from.Rollback(fromSP)
		to.Rollback(toSP)
	}

	if _, err := from.Withdraw(amount, at); err != nil {
		return err
	}
	if _, err := to.Deposit(amount, at); err != nil {
		rollback()
		return err
	}
	rec := from.RecordTransferOut(amount, toID, at)

	var intent *transfers.Intent
	if l.journal != nil {
		var err error
		intent, err = l.journal.Prepare(fromID, toID, amount, rec.Time)
		if err != nil {
			rollback()
			return errors.Wrap(err, "journal transfer")
		}
	}

	if err := l.persist(ctx); err != nil {
		rollback()
		if intent != nil {
			if markErr := l.journal.MarkFailed(intent, err); markErr != nil {
				l.l.Error("failed to mark transfer intent failed",
					zap.Error(markErr), zap.String("intent_id", intent.ID))
			}
		}
		return err
	}

	if intent != nil {
		// the state file already holds the transfer; a pending intent is resolved on the next start
		if err := l.journal.MarkDone(intent); err != nil {
			l.l.Warn("failed to mark transfer intent done",
				zap.Error(err), zap.String("intent_id", intent.ID))
		}
	}

	l.l.Info("transfer completed",
		zap.String("from", fromID),
		zap.String("to", toID),
		zap.String("amount", amount.String()))
	l.publish(from, domain.RecordTransferOut, amount, at)
	l.publish(to, domain.RecordDeposit, amount, at)

	return nil
}
