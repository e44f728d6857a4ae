package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventPlaybackState       EventType = "playback.state"
	EventPresentationRemoved EventType = "presentation.removed"
	EventPlaybackError       EventType = "playback.error"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// PresentationRemovedEvent tells connected viewers their screen code is gone.
type PresentationRemovedEvent struct {
	ScreenCode string `json:"screen_code"`
	Reason     string `json:"reason"`
	RemovedAt  string `json:"removed_at"`
}

// PlaybackErrorEvent carries a message for a viewer whose input was rejected.
type PlaybackErrorEvent struct {
	Message string `json:"message"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
