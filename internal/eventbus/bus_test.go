package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(4)
	defer bus.Unsubscribe(id)

	bus.PublishNew(EventOwnerAssigned, "task-1", map[string]string{"owner": "Alice"})

	select {
	case event := <-ch:
		assert.Equal(t, EventOwnerAssigned, event.Type)
		assert.Equal(t, "task-1", event.ResourceID)
		assert.Equal(t, "Alice", event.Metadata["owner"])
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.CreatedAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	bus := New()
	id1, ch1 := bus.Subscribe(4)
	defer bus.Unsubscribe(id1)
	id2, ch2 := bus.Subscribe(4)
	defer bus.Unsubscribe(id2)

	bus.PublishNew(EventTaskCreated, "task-1", nil)

	for _, ch := range []<-chan *Event{ch1, ch2} {
		select {
		case event := <-ch:
			assert.Equal(t, EventTaskCreated, event.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)
	defer bus.Unsubscribe(id)

	// The second publish finds the buffer full and must not block.
	done := make(chan struct{})
	go func() {
		bus.PublishNew(EventTaskCreated, "task-1", nil)
		bus.PublishNew(EventTaskCreated, "task-2", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}

	event := <-ch
	assert.Equal(t, "task-1", event.ResourceID)
	select {
	case dropped := <-ch:
		t.Fatalf("expected second event to be dropped, got %v", dropped)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)
	bus.Unsubscribe(id)

	_, ok := <-ch
	require.False(t, ok, "channel must be closed after unsubscribe")

	// Publishing after unsubscribe must not panic.
	bus.PublishNew(EventTaskDeleted, "task-1", nil)
}
