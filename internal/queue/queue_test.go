package queue_test

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givehub/escrow-backend/internal/events"
	"github.com/givehub/escrow-backend/internal/queue"
)

func TestInMemoryQueueDeliversToAllSubscribers(t *testing.T) {
	q := queue.NewInMemoryQueue(zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(2)

	var mu sync.Mutex
	var received []events.Event

	handler := func(payload any) error {
		defer wg.Done()
		ev, ok := payload.(events.Event)
		if !ok {
			t.Errorf("unexpected payload type %T", payload)
			return nil
		}
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
		return nil
	}

	require.NoError(t, q.Subscribe(events.Topic, handler))
	require.NoError(t, q.Subscribe(events.Topic, handler))

	ev := events.Event{Type: events.TypeDonationRecorded, CampaignID: "abc", Amount: 100}
	require.NoError(t, q.Publish(events.Topic, ev))

	wg.Wait()
	assert.Len(t, received, 2)
	for _, got := range received {
		assert.Equal(t, ev, got)
	}
}

func TestInMemoryQueueDropsWithoutSubscribers(t *testing.T) {
	q := queue.NewInMemoryQueue(zerolog.Nop())
	assert.NoError(t, q.Publish("unused_topic", "payload"))
}

func TestInMemoryQueueRejectsNilHandler(t *testing.T) {
	q := queue.NewInMemoryQueue(zerolog.Nop())
	assert.Error(t, q.Subscribe(events.Topic, nil))
}

func TestInMemoryQueueRetriesFailedHandler(t *testing.T) {
	q := queue.NewInMemoryQueue(zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(1)

	var mu sync.Mutex
	attempts := 0
	require.NoError(t, q.Subscribe(events.Topic, func(payload any) error {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 2 {
			return assert.AnError
		}
		wg.Done()
		return nil
	}))

	require.NoError(t, q.Publish(events.Topic, "payload"))
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
}
