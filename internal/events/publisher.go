package events

import (
	"time"

	"github.com/princekumarofficial/zcreens-service/internal/types"
)

// Publisher interface for publishing events
type Publisher interface {
	PresentationRemoved(screenCode, reason string)
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub WebSocketHub
	now func() time.Time
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	CloseScreen(code string, event *types.Event)
	IsScreenWatched(code string) bool
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
		now: time.Now,
	}
}

// PresentationRemoved tells everyone watching screenCode that it is gone and
// disconnects them.
func (p *EventPublisher) PresentationRemoved(screenCode, reason string) {
	// Only send if someone is watching
	if !p.hub.IsScreenWatched(screenCode) {
		return
	}

	eventData := &types.PresentationRemovedEvent{
		ScreenCode: screenCode,
		Reason:     reason,
		RemovedAt:  p.now().UTC().Format(time.RFC3339),
	}

	p.hub.CloseScreen(screenCode, types.NewEvent(types.EventPresentationRemoved, eventData))
}
