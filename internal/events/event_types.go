package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDepartmentAdded EventType = "department_added"
	EventActivityAdded   EventType = "activity_added"
	EventTreeLoaded      EventType = "tree_loaded"
	EventTreeSaved       EventType = "tree_saved"
	EventTreeLoadFailed  EventType = "tree_load_failed"
	EventTreeSaveFailed  EventType = "tree_save_failed"
)

// AllEventTypes lists every event the store emits.
var AllEventTypes = []EventType{
	EventDepartmentAdded,
	EventActivityAdded,
	EventTreeLoaded,
	EventTreeSaved,
	EventTreeLoadFailed,
	EventTreeSaveFailed,
}

// Level tells sinks whether an event reports success or failure.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Event is a human-readable notification emitted by the store. Sinks observe
// it; nothing they do feeds back into store state.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	Level        Level     `json:"level"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	DepartmentID string    `json:"department_id,omitempty"`
	ActivityID   string    `json:"activity_id,omitempty"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Failed reports whether the event describes a failure.
func (e Event) Failed() bool {
	return e.Level == LevelError
}
