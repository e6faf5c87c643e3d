package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeArchiveCompleted is emitted after a session's memories are archived.
	EventTypeArchiveCompleted = "infctx.archive.completed"
)

// ArchiveEvent is a transport-neutral event payload for a completed archive pass.
type ArchiveEvent struct {
	SchemaVersion   int       `json:"schema_version"`
	EventType       string    `json:"event_type"`
	EventID         string    `json:"event_id"`
	Timestamp       time.Time `json:"timestamp"`
	Project         string    `json:"project,omitempty"`
	SessionID       string    `json:"session_id"`
	MemoriesCreated int       `json:"memories_created"`
}

// NewArchiveEvent builds a v1 archive event with a fresh event ID.
func NewArchiveEvent(project, sessionID string, memoriesCreated int) *ArchiveEvent {
	return &ArchiveEvent{
		SchemaVersion:   SchemaVersionV1,
		EventType:       EventTypeArchiveCompleted,
		EventID:         uuid.New().String(),
		Timestamp:       time.Now().UTC(),
		Project:         project,
		SessionID:       sessionID,
		MemoriesCreated: memoriesCreated,
	}
}
