package events

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventLog is the durable trail behind the Bus. Rows are append-only;
// Prune is the only delete path.
type EventLog struct {
	db *sql.DB
}

// NewEventLog creates an event log over an open database.
func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: db}
}

// Append writes one event and returns its row ID.
func (l *EventLog) Append(e Event) (int64, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}

	res, err := l.db.Exec(
		`INSERT INTO events (event_type, entity_type, entity_id, payload, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.EventType(), e.EntityType(), e.EntityID(), string(payload), e.OccurredAt(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return res.LastInsertId()
}

// RawEvent is one persisted row with its payload still encoded.
// Decode turns it back into a typed event.
type RawEvent struct {
	ID         int64
	EventType  string
	EntityType string
	EntityID   string
	Payload    string
	OccurredAt time.Time
	CreatedAt  time.Time
}

const selectEvents = `SELECT id, event_type, entity_type, entity_id, payload, occurred_at, created_at FROM events`

// Since returns events at or after t, oldest first.
func (l *EventLog) Since(t time.Time) ([]RawEvent, error) {
	return l.query(selectEvents+` WHERE occurred_at >= ? ORDER BY id ASC`, t)
}

// Recent returns the last n events, newest first.
func (l *EventLog) Recent(n int) ([]RawEvent, error) {
	return l.query(selectEvents+` ORDER BY id DESC LIMIT ?`, n)
}

// ForEntity returns the full trail for one entity, oldest first.
func (l *EventLog) ForEntity(entityType, entityID string) ([]RawEvent, error) {
	return l.query(selectEvents+` WHERE entity_type = ? AND entity_id = ? ORDER BY id ASC`, entityType, entityID)
}

// Prune removes events older than the retention window and reports how
// many rows went away.
func (l *EventLog) Prune(olderThan time.Duration) (int64, error) {
	res, err := l.db.Exec(`DELETE FROM events WHERE occurred_at < ?`, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}

func (l *EventLog) query(q string, args ...any) ([]RawEvent, error) {
	rows, err := l.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []RawEvent
	for rows.Next() {
		var e RawEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.EntityType, &e.EntityID, &e.Payload, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
