package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// TimeLayout is the timestamp format of a rendered record.
const TimeLayout = "2006-01-02 15:04:05"

// RecordKind is the type of balance-affecting event.
type RecordKind int

const (
	RecordOpen RecordKind = iota
	RecordDeposit
	RecordWithdraw
	RecordTransferOut
)

// record verb constants to avoid magic strings
const (
	verbOpen        = "Account opened with balance"
	verbDeposit     = "Deposited"
	verbWithdraw    = "Withdrawn"
	verbTransferOut = "Transferred"

	fieldSeparator = " | "
	balancePrefix  = "Balance "
	transferInfix  = " to "
)

// String returns the string representation of the kind
func (k RecordKind) String() string {
	switch k {
	case RecordOpen:
		return "open"
	case RecordDeposit:
		return "deposit"
	case RecordWithdraw:
		return "withdraw"
	case RecordTransferOut:
		return "transfer_out"
	default:
		return "unknown"
	}
}

// Record is one immutable entry of an account history.
type Record struct {
	// Time when the event happened, truncated to seconds.
	Time time.Time
	// Kind of the event.
	Kind RecordKind
	// Amount moved by the event.
	Amount decimal.Decimal
	// Balance after the event. Zero for transfer records.
	Balance decimal.Decimal
	// Counterparty is the destination account of a transfer.
	Counterparty string
}

func newRecord(at time.Time, kind RecordKind, amount, balance decimal.Decimal, counterparty string) Record {
	return Record{
		Time:         at.Truncate(time.Second),
		Kind:         kind,
		Amount:       amount,
		Balance:      balance,
		Counterparty: counterparty,
	}
}

// String renders the record as a history line.
func (r Record) String() string {
	ts := r.Time.Format(TimeLayout)

	switch r.Kind {
	case RecordOpen:
		return fmt.Sprintf("%s | %s %s", ts, verbOpen, r.Amount.String())
	case RecordDeposit:
		return fmt.Sprintf("%s | %s %s | Balance %s", ts, verbDeposit, r.Amount.String(), r.Balance.String())
	case RecordWithdraw:
		return fmt.Sprintf("%s | %s %s | Balance %s", ts, verbWithdraw, r.Amount.String(), r.Balance.String())
	case RecordTransferOut:
		return fmt.Sprintf("%s | %s %s to %s", ts, verbTransferOut, r.Amount.String(), r.Counterparty)
	default:
		return fmt.Sprintf("%s | %s %s", ts, r.Kind.String(), r.Amount.String())
	}
}

// ParseRecord parses a history line produced by Record.String.
func ParseRecord(line string) (Record, error) {
	parts := strings.Split(line, fieldSeparator)
	if len(parts) < 2 {
		return Record{}, errors.Errorf("malformed record %q", line)
	}

	at, err := time.ParseInLocation(TimeLayout, parts[0], time.Local)
	if err != nil {
		return Record{}, errors.Wrapf(err, "malformed record time %q", parts[0])
	}

	event := parts[1]

	switch {
	case strings.HasPrefix(event, verbOpen+" "):
		if len(parts) != 2 {
			return Record{}, errors.Errorf("malformed open record %q", line)
		}
		amount, err := decimal.NewFromString(strings.TrimPrefix(event, verbOpen+" "))
		if err != nil {
			return Record{}, errors.Wrapf(err, "malformed open amount in %q", line)
		}
		return newRecord(at, RecordOpen, amount, amount, ""), nil

	case strings.HasPrefix(event, verbDeposit+" "), strings.HasPrefix(event, verbWithdraw+" "):
		if len(parts) != 3 || !strings.HasPrefix(parts[2], balancePrefix) {
			return Record{}, errors.Errorf("malformed balance record %q", line)
		}
		kind, verb := RecordDeposit, verbDeposit
		if strings.HasPrefix(event, verbWithdraw) {
			kind, verb = RecordWithdraw, verbWithdraw
		}
		amount, err := decimal.NewFromString(strings.TrimPrefix(event, verb+" "))
		if err != nil {
			return Record{}, errors.Wrapf(err, "malformed amount in %q", line)
		}
		balance, err := decimal.NewFromString(strings.TrimPrefix(parts[2], balancePrefix))
		if err != nil {
			return Record{}, errors.Wrapf(err, "malformed balance in %q", line)
		}
		return newRecord(at, kind, amount, balance, ""), nil

	case strings.HasPrefix(event, verbTransferOut+" "):
		if len(parts) != 2 {
			return Record{}, errors.Errorf("malformed transfer record %q", line)
		}
		rest := strings.TrimPrefix(event, verbTransferOut+" ")
		amountStr, counterparty, ok := strings.Cut(rest, transferInfix)
		if !ok || counterparty == "" {
			return Record{}, errors.Errorf("malformed transfer record %q", line)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return Record{}, errors.Wrapf(err, "malformed transfer amount in %q", line)
		}
		return newRecord(at, RecordTransferOut, amount, decimal.Zero, counterparty), nil
	}

	return Record{}, errors.Errorf("unknown record kind in %q", line)
}
