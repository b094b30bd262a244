package notify

import (
	"encoding/json"
	"time"
)

const (
	EventNotificationRequested = "NotificationRequested"
)

const (
	TopicNotifyRequested = "notify.requested"
)

// PartitionKey keys on the reference id so every notification about one
// order stays ordered.
func PartitionKey(referenceID string) []byte { return []byte(referenceID) }

// Envelope is the versioned wrapper around every event on the bus.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Event is what a subject receives: a category, display copy and a deep
// link back to the referenced entity.
type Event struct {
	Kind          string `json:"kind"`
	Title         string `json:"title"`
	Message       string `json:"message"`
	Link          string `json:"link"`
	ReferenceID   string `json:"reference_id"`
	ReferenceType string `json:"reference_type"`
}

type RequestedPayload struct {
	UserIDs []string `json:"user_ids"`
	Event   Event    `json:"event"`
}
