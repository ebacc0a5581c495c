package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_Success(t *testing.T) {
	payload := map[string]string{"ride_id": "abc"}

	event, err := NewEvent(EventRideCreated, payload)
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, EventRideCreated, event.Type)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())

	_, err = uuid.Parse(event.ID)
	assert.NoError(t, err)

	var decoded map[string]string
	err = json.Unmarshal(event.Payload, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "abc", decoded["ride_id"])
}

func TestBus_Publish_DeliversToAllSubscribers(t *testing.T) {
	bus := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	received := map[string]*Event{}
	var wg sync.WaitGroup
	wg.Add(2)

	bus.Subscribe(ctx, "sub-1", func(_ context.Context, e *Event) {
		mu.Lock()
		received["sub-1"] = e
		mu.Unlock()
		wg.Done()
	})
	bus.Subscribe(ctx, "sub-2", func(_ context.Context, e *Event) {
		mu.Lock()
		received["sub-2"] = e
		mu.Unlock()
		wg.Done()
	})

	err := bus.Publish(ctx, EventRideCreated, map[string]string{"ride_id": "r1"})
	require.NoError(t, err)

	waitWithTimeout(t, &wg, time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, EventRideCreated, received["sub-1"].Type)
	assert.Equal(t, EventRideCreated, received["sub-2"].Type)
}

func TestBus_Unsubscribe_StopsDelivery(t *testing.T) {
	bus := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	var mu sync.Mutex
	bus.Subscribe(ctx, "sub-1", func(_ context.Context, _ *Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	bus.Unsubscribe("sub-1")
	_ = bus.Publish(ctx, EventRideCreated, map[string]string{"ride_id": "r1"})

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestBus_Publish_NoSubscribersIsNoop(t *testing.T) {
	bus := New()
	ctx := context.Background()

	err := bus.Publish(ctx, EventDriverCreated, map[string]string{"driver_id": "d1"})

	assert.NoError(t, err)
}

func waitWithTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for subscribers")
	}
}
