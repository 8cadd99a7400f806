package events

import "time"

// Event is implemented by everything published on the Bus.
type Event interface {
	EventType() string
	EntityType() string // "session", "file", "scan"
	EntityID() string   // session UUID, file path, or scan root
	OccurredAt() time.Time
}

// BaseEvent carries the envelope fields shared by every event. Payload
// structs embed it and add only their own fields.
type BaseEvent struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity_type"`
	ID        string    `json:"entity_id"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EntityType() string    { return e.Entity }
func (e BaseEvent) EntityID() string      { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an envelope with the current time.
func NewBaseEvent(eventType, entityType, entityID string) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		Entity:    entityType,
		ID:        entityID,
		Timestamp: time.Now(),
	}
}
