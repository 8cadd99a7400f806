// internal/events/decode.go
package events

import (
	"encoding/json"
	"fmt"
)

// payloadFor maps a persisted event type to its payload struct. The set
// is closed: the scanner and the batch scheduler are the only publishers.
var payloadFor = map[string]func() Event{
	EventEncodingStart:    func() Event { return &EncodingStart{} },
	EventFileStart:        func() Event { return &FileStart{} },
	EventFileProgress:     func() Event { return &FileProgress{} },
	EventFileComplete:     func() Event { return &FileComplete{} },
	EventEncodingComplete: func() Event { return &EncodingComplete{} },
	EventEncodingStopped:  func() Event { return &EncodingStopped{} },
	EventLogMessage:       func() Event { return &LogMessage{} },
}

// Decode turns a persisted log entry back into its typed event.
func Decode(raw RawEvent) (Event, error) {
	factory, ok := payloadFor[raw.EventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", raw.EventType)
	}
	e := factory()
	if err := json.Unmarshal([]byte(raw.Payload), e); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", raw.EventType, err)
	}
	return e, nil
}
