// Package events fans out ledger balance changes to interested subscribers.
package events

import (
	"sync"
	"time"
)

// BalanceChanged is published after a mutation reaches the state file.
// Amounts are strings so consumers do not need the decimal package.
type BalanceChanged struct {
	Timestamp time.Time `json:"ts"`
	Account   string    `json:"account"`
	Kind      string    `json:"kind"`
	Amount    string    `json:"amount"`
	Balance   string    `json:"balance"`
}

// Broadcaster fans out events to all subscribers via buffered channels.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[chan BalanceChanged]struct{}
	buffer int
}

// NewBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer < 1 {
		buffer = 64
	}
	return &Broadcaster{
		subs:   make(map[chan BalanceChanged]struct{}),
		buffer: buffer,
	}
}

// Publish sends the event to all subscribers, dropping it for a reader that is behind.
func (b *Broadcaster) Publish(e BalanceChanged) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// drop slow consumer
		}
	}
}

// Subscribe returns a channel that receives events until Unsubscribe is called.
func (b *Broadcaster) Subscribe() chan BalanceChanged {
	ch := make(chan BalanceChanged, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *Broadcaster) Unsubscribe(ch chan BalanceChanged) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
