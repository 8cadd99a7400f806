// internal/events/encoding.go
package events

// Entity types
const (
	EntitySession = "session"
	EntityFile    = "file"
	EntityScan    = "scan"
)

// Event type constants. These are wire names consumed by progress
// renderers, so they stay flat rather than dotted.
const (
	EventEncodingStart    = "encoding_start"
	EventFileStart        = "file_start"
	EventFileProgress     = "file_progress"
	EventFileComplete     = "file_complete"
	EventEncodingComplete = "encoding_complete"
	EventEncodingStopped  = "encoding_stopped"
	EventLogMessage       = "log"
)

// EncodingStart is emitted once when a batch session begins.
type EncodingStart struct {
	BaseEvent
	JobCount int `json:"job_count"`
}

// FileStart is emitted when the encoder picks up the next file.
type FileStart struct {
	BaseEvent
	Filename string `json:"filename"`
}

// FileProgress is emitted as the in-flight encode advances. Progress and
// BatchProgress are percentages; the ETA fields are display strings.
type FileProgress struct {
	BaseEvent
	Filename      string  `json:"filename"`
	Progress      float64 `json:"progress"`
	FPS           float64 `json:"fps"`
	ETA           string  `json:"eta"`
	BatchProgress float64 `json:"batch_progress"`
	BatchETA      string  `json:"batch_eta"`
}

// FileComplete is emitted after a file's encode finished, succeeded or
// not. Sizes are bytes; EncodedSize is 0 when nothing usable was written.
type FileComplete struct {
	BaseEvent
	Filename     string `json:"filename"`
	Success      bool   `json:"success"`
	OriginalSize int64  `json:"original_size"`
	EncodedSize  int64  `json:"encoded_size"`
}

// EncodingComplete is emitted when a batch runs to the end of its queue.
type EncodingComplete struct {
	BaseEvent
}

// EncodingStopped is emitted when a batch ends because of a stop request.
type EncodingStopped struct {
	BaseEvent
}

// Log message types, each with a display color.
const (
	LogFileStart     = "file_start"
	LogCommand       = "command"
	LogError         = "error"
	LogFFmpegError   = "ffmpeg_error"
	LogWarning       = "warning"
	LogInfo          = "info"
	LogReductionInfo = "reduction_info"
)

var logColors = map[string]string{
	LogFileStart:     "#4a9eff",
	LogCommand:       "#ffcc00",
	LogError:         "#ff6b6b",
	LogFFmpegError:   "#ff6b6b",
	LogWarning:       "#ffa500",
	LogInfo:          "#d4d4d4",
	LogReductionInfo: "#4caf50",
}

// LogColor returns the display color for a log type, defaulting to the
// info color for unknown types.
func LogColor(logType string) string {
	if c, ok := logColors[logType]; ok {
		return c
	}
	return logColors[LogInfo]
}

// LogMessage is a human-readable progress line from the scanner or the
// scheduler. Timestamp is the wall clock formatted for display; the
// envelope's occurred_at remains the machine time.
type LogMessage struct {
	BaseEvent
	Message   string `json:"message"`
	LogType   string `json:"log_type"`
	Color     string `json:"color"`
	Timestamp string `json:"timestamp"`
}

// NewLogMessage builds a log event attributed to the given entity.
func NewLogMessage(entityType, entityID, logType, message string) *LogMessage {
	base := NewBaseEvent(EventLogMessage, entityType, entityID)
	return &LogMessage{
		BaseEvent: base,
		Message:   message,
		LogType:   logType,
		Color:     LogColor(logType),
		Timestamp: base.Timestamp.Format("15:04:05"),
	}
}
