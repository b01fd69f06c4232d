package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKind_String(t *testing.T) {
	assert.Equal(t, "open", RecordOpen.String())
	assert.Equal(t, "deposit", RecordDeposit.String())
	assert.Equal(t, "withdraw", RecordWithdraw.String())
	assert.Equal(t, "transfer_out", RecordTransferOut.String())
	assert.Equal(t, "unknown", RecordKind(42).String())
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		kind         RecordKind
		amount       string
		balance      string
		counterparty string
	}{
		{
			name:    "open",
			line:    "2025-03-14 09:26:53 | Account opened with balance 100",
			kind:    RecordOpen,
			amount:  "100",
			balance: "100",
		},
		{
			name:    "deposit",
			line:    "2025-03-14 09:26:53 | Deposited 50.5 | Balance 150.5",
			kind:    RecordDeposit,
			amount:  "50.5",
			balance: "150.5",
		},
		{
			name:    "withdraw",
			line:    "2025-03-14 09:26:53 | Withdrawn 0.5 | Balance 150",
			kind:    RecordWithdraw,
			amount:  "0.5",
			balance: "150",
		},
		{
			name:         "transfer",
			line:         "2025-03-14 09:26:53 | Transferred 150 to 87654321",
			kind:         RecordTransferOut,
			amount:       "150",
			balance:      "0",
			counterparty: "87654321",
		},
		{
			name:    "float formatted amounts",
			line:    "2025-03-14 09:26:53 | Deposited 50.0 | Balance 150.0",
			kind:    RecordDeposit,
			amount:  "50",
			balance: "150",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, rec.Kind)
			assert.True(t, rec.Amount.Equal(decimal.RequireFromString(tt.amount)), "amount %s", rec.Amount)
			assert.True(t, rec.Balance.Equal(decimal.RequireFromString(tt.balance)), "balance %s", rec.Balance)
			assert.Equal(t, tt.counterparty, rec.Counterparty)
			assert.Equal(t, "2025-03-14 09:26:53", rec.Time.Format(TimeLayout))
		})
	}
}

func TestParseRecord_RoundTrip(t *testing.T) {
	records := []Record{
		newRecord(testTime, RecordOpen, decimal.NewFromInt(100), decimal.NewFromInt(100), ""),
		newRecord(testTime, RecordDeposit, decimal.RequireFromString("0.01"), decimal.RequireFromString("100.01"), ""),
		newRecord(testTime, RecordWithdraw, decimal.RequireFromString("100.01"), decimal.Zero, ""),
		newRecord(testTime, RecordTransferOut, decimal.NewFromInt(3), decimal.Zero, "00000001"),
	}

	for _, rec := range records {
		parsed, err := ParseRecord(rec.String())
		require.NoError(t, err)
		assert.Equal(t, rec.String(), parsed.String())
		assert.True(t, rec.Time.Equal(parsed.Time))
	}
}

func TestParseRecord_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"garbage",
		"not a time | Deposited 5 | Balance 5",
		"2025-03-14 09:26:53 | Deposited five | Balance 5",
		"2025-03-14 09:26:53 | Deposited 5",
		"2025-03-14 09:26:53 | Withdrawn 5 | Total 5",
		"2025-03-14 09:26:53 | Transferred 5",
		"2025-03-14 09:26:53 | Transferred 5 to ",
		"2025-03-14 09:26:53 | Refunded 5",
	} {
		_, err := ParseRecord(line)
		assert.Error(t, err, "line %q", line)
	}
}
