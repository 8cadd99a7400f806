package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// subscription delivers matching events to one consumer channel.
// Empty filter fields match everything.
type subscription struct {
	ch         chan Event
	eventType  string
	entityType string
	entityID   string
	dropped    atomic.Int64
}

func (s *subscription) matches(e Event) bool {
	if s.eventType != "" && s.eventType != e.EventType() {
		return false
	}
	if s.entityType != "" && (s.entityType != e.EntityType() || s.entityID != e.EntityID()) {
		return false
	}
	return true
}

// Bus fans scan and encoding events out to in-process consumers and,
// when an EventLog is attached, records them for later inspection.
// Delivery never blocks a publisher: a consumer that falls behind its
// buffer loses events instead of stalling the batch.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	log    *EventLog
	logger *slog.Logger
	closed bool
}

// NewBus creates a bus. Pass a nil EventLog to disable persistence.
func NewBus(log *EventLog, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{log: log, logger: logger}
}

// Publish records the event and hands it to every matching subscriber.
// Publishing on a closed bus is a no-op.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}

	if b.log != nil {
		if _, err := b.log.Append(e); err != nil {
			// Live progress still flows when the trail cannot be written.
			b.logger.Error("failed to persist event", "type", e.EventType(), "error", err)
		}
	}

	for _, sub := range b.subs {
		if !sub.matches(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			b.logger.Warn("subscriber buffer full, dropping event",
				"type", e.EventType(),
				"entity_type", e.EntityType(),
				"entity_id", e.EntityID(),
				"dropped", sub.dropped.Add(1))
		}
	}
	return nil
}

// Subscribe returns a channel receiving events of one type.
func (b *Bus) Subscribe(eventType string, bufferSize int) <-chan Event {
	return b.add(&subscription{ch: make(chan Event, bufferSize), eventType: eventType})
}

// SubscribeAll returns a channel receiving every event.
func (b *Bus) SubscribeAll(bufferSize int) <-chan Event {
	return b.add(&subscription{ch: make(chan Event, bufferSize)})
}

// SubscribeEntity returns a channel following a single entity, such as
// one file of a running batch.
func (b *Bus) SubscribeEntity(entityType, entityID string, bufferSize int) <-chan Event {
	return b.add(&subscription{ch: make(chan Event, bufferSize), entityType: entityType, entityID: entityID})
}

func (b *Bus) add(sub *subscription) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub.ch
	}
	b.subs = append(b.subs, sub)
	return sub.ch
}

// Unsubscribe stops delivery to ch and closes it.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.ch == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Close stops delivery and closes every subscriber channel.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
	return nil
}
