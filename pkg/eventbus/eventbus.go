// Package eventbus implements the dispatch core's live-event fan-out
// (C4/C13): an in-process publish/subscribe bus. The spec is explicit that
// this component is in-process — the transport layer, out of scope here,
// is what turns a subscription into a WebSocket push. This is the direct
// descendant of the ride-hailing service's NATS JetStream-backed bus, with
// the broker removed and its Event envelope and subscribe/publish shape
// kept.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/pkg/logger"
	"go.uber.org/zap"
)

// Event is the envelope for every event delivered through the bus:
// {type, payload} per C13, plus bookkeeping fields useful to subscribers
// and logs.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent builds an Event envelope, marshaling payload into it.
func NewEvent(eventType EventType, payload interface{}) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}

// HandlerFunc receives a delivered event. Handlers run in their own
// goroutine per subscriber and must not block indefinitely — a slow
// handler only delays its own subscriber's queue, per the bus's
// best-effort delivery contract.
type HandlerFunc func(ctx context.Context, event *Event)

// subscriberQueueSize bounds how many undelivered events a slow subscriber
// can accumulate before the bus starts dropping new ones for it (best
// effort, never blocking the publisher).
const subscriberQueueSize = 256

type subscriber struct {
	id      string
	handler HandlerFunc
	queue   chan *Event
	done    chan struct{}
}

// Bus is an in-process event bus. Publish never blocks on a subscriber;
// each subscriber drains its own buffered queue in its own goroutine, and
// a full queue has the new event dropped for that subscriber rather than
// stall the publisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
}

// New constructs an empty event bus.
func New() *Bus {
	return &Bus{subscribers: make(map[string]*subscriber)}
}

// Subscribe registers handler to receive every event published after this
// call returns. id should be unique per subscriber (e.g. a connection ID);
// re-subscribing with the same id replaces the previous registration.
func (b *Bus) Subscribe(ctx context.Context, id string, handler HandlerFunc) {
	b.mu.Lock()
	if existing, ok := b.subscribers[id]; ok {
		close(existing.done)
	}
	sub := &subscriber{
		id:      id,
		handler: handler,
		queue:   make(chan *Event, subscriberQueueSize),
		done:    make(chan struct{}),
	}
	b.subscribers[id] = sub
	b.mu.Unlock()

	go sub.run(ctx)
}

func (s *subscriber) run(ctx context.Context) {
	for {
		select {
		case event := <-s.queue:
			s.handler(ctx, event)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Unsubscribe removes a subscriber; its delivery goroutine exits.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subscribers[id]; ok {
		close(sub.done)
		delete(b.subscribers, id)
	}
}

// Publish delivers event to every currently-registered subscriber,
// best-effort. A subscriber whose queue is full has the event dropped for
// it rather than blocking the caller — acceptable because the bus
// guarantees no ordering across aggregates and delivery is best-effort by
// design.
func (b *Bus) Publish(ctx context.Context, eventType EventType, payload interface{}) error {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		select {
		case sub.queue <- event:
		default:
			logger.Warn("event dropped for slow subscriber",
				zap.String("subscriber_id", sub.id),
				zap.String("type", string(eventType)),
			)
		}
	}

	return nil
}

// Close unregisters every subscriber.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subscribers {
		close(sub.done)
		delete(b.subscribers, id)
	}
}
