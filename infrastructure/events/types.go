// Package events defines the envelope written to Redis Streams when an
// article has been location-tagged.
package events

import (
	"time"

	"github.com/google/uuid"
)

// DefaultStreamName is the Redis stream for tagging audit records.
const DefaultStreamName = "geotagger-audit"

// EventType names the kind of audit event.
type EventType string

const (
	// LocationsTagged is emitted after a predict request finishes.
	LocationsTagged EventType = "LOCATIONS_TAGGED"
	// FeaturesExtracted is emitted for train-mode requests.
	FeaturesExtracted EventType = "FEATURES_EXTRACTED"
)

// TaggingEvent is the envelope for every audit record.
type TaggingEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	Sequence  string    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewTaggingEvent stamps a new envelope.
func NewTaggingEvent(eventType EventType, sequence string, payload any) TaggingEvent {
	return TaggingEvent{
		EventID:   uuid.New(),
		EventType: eventType,
		Sequence:  sequence,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// LocationsTaggedPayload is the LOCATIONS_TAGGED body. Locations holds the
// tagged locations as a JSON string so downstream consumers can store it
// verbatim.
type LocationsTaggedPayload struct {
	Sequence  string   `json:"sequence"`
	SlimTitle string   `json:"slimTitle"`
	Features  []string `json:"features"`
	URL       string   `json:"url"`
	Locations string   `json:"locations"`
}
