package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event flowing through the system.
type EventType string

const (
	VideoCreated             EventType = "video.created"
	VideoProcessingStarted   EventType = "video.processing.started"
	VideoProcessingCompleted EventType = "video.processing.completed"
	VideoProcessingFailed    EventType = "video.processing.failed"
	FragmentStored           EventType = "fragment.stored"
	FragmentsIndexed         EventType = "fragments.indexed"
	SearchExecuted           EventType = "search.executed"
)

// Envelope is the standard event wrapper published to the event bus.
type Envelope struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Source    string            `json:"source"`
	VideoID   string            `json:"video_id"`
	Timestamp time.Time         `json:"timestamp"`
	Data      json.RawMessage   `json:"data"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// VideoCreatedData is the payload for video.created events.
type VideoCreatedData struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// ProcessingStartedData is the payload for video.processing.started events.
type ProcessingStartedData struct {
	Segments int `json:"segments"`
}

// ProcessingCompletedData is the payload for video.processing.completed events.
type ProcessingCompletedData struct {
	Fragments  int   `json:"fragments"`
	DurationMs int64 `json:"duration_ms"`
}

// ProcessingFailedData is the payload for video.processing.failed events.
type ProcessingFailedData struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// FragmentStoredData is the payload for fragment.stored events.
type FragmentStoredData struct {
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	MediaReference string  `json:"media_reference"`
	Attempts       int     `json:"attempts"`
}

// FragmentsIndexedData is the payload for fragments.indexed events.
type FragmentsIndexedData struct {
	Count int `json:"count"`
}
