package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_PublishSubscribe(t *testing.T) {
	b := NewBroadcaster(4)
	first := b.Subscribe()
	second := b.Subscribe()

	b.Publish(BalanceChanged{Account: "1", Kind: "deposit", Amount: "5", Balance: "5"})

	for _, ch := range []chan BalanceChanged{first, second} {
		select {
		case e := <-ch:
			assert.Equal(t, "1", e.Account)
			assert.Equal(t, "5", e.Balance)
		default:
			t.Fatal("event was not delivered")
		}
	}
}

func TestBroadcaster_DropsForSlowSubscriber(t *testing.T) {
	b := NewBroadcaster(1)
	ch := b.Subscribe()

	b.Publish(BalanceChanged{Account: "1"})
	b.Publish(BalanceChanged{Account: "2"})

	e := <-ch
	assert.Equal(t, "1", e.Account)
	assert.Len(t, ch, 0)
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster(0)
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	b.Unsubscribe(ch)

	_, ok := <-ch
	require.False(t, ok)

	b.Publish(BalanceChanged{Account: "1"})
}

func TestBroadcaster_NilPublish(t *testing.T) {
	var b *Broadcaster
	assert.NotPanics(t, func() { b.Publish(BalanceChanged{}) })
}
