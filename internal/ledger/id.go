package ledger

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	defaultIDLength = 8
	maxIDAttempts   = 1000
	idDigits        = "0123456789"
)

// generateAccountID returns a random numeric id of idLength digits that is not in use.
// Callers must hold the write lock.
func (l *Ledger) generateAccountID() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		var b strings.Builder
		b.Grow(l.idLength)
		for i := 0; i < l.idLength; i++ {
			b.WriteByte(idDigits[l.intn(len(idDigits))])
		}

		id := b.String()
		if _, exists := l.accounts[id]; !exists {
			return id, nil
		}

		l.l.Debug("account id collision, retrying")
	}

	return "", errors.Errorf("no free %d-digit account id after %d attempts", l.idLength, maxIDAttempts)
}
