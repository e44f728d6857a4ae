package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/zcreens-service/internal/types"
)

// Hub maintains the set of active viewers and broadcasts messages to them,
// grouped by the screen code they are watching.
type Hub struct {
	// Registered clients grouped by screen code
	screens map[string]map[*Client]struct{}

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect screens map
	mu sync.RWMutex

	// Channel to broadcast events
	broadcast chan *BroadcastMessage

	// Closed when Run returns
	done chan struct{}
}

// BroadcastMessage represents a message to be broadcast to every viewer of a
// screen. With Disconnect set the viewers are closed after the event.
type BroadcastMessage struct {
	ScreenCode string       `json:"screen_code"`
	Event      *types.Event `json:"event,omitempty"`
	Disconnect bool         `json:"disconnect"`
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		screens:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 64),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns when ctx is done, closing every
// remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			viewers, ok := h.screens[client.screenCode]
			if !ok {
				viewers = make(map[*Client]struct{})
				h.screens[client.screenCode] = viewers
			}
			viewers[client] = struct{}{}
			h.mu.Unlock()
			slog.Info("Viewer connected", slog.String("screen_code", client.screenCode))

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			if message.Event != nil {
				h.broadcastToScreen(message.ScreenCode, message.Event)
			}
			if message.Disconnect {
				h.disconnectScreen(message.ScreenCode)
			}

		case <-ctx.Done():
			h.mu.Lock()
			for code, viewers := range h.screens {
				for client := range viewers {
					client.close()
				}
				delete(h.screens, code)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if viewers, ok := h.screens[client.screenCode]; ok {
		if _, ok := viewers[client]; ok {
			delete(viewers, client)
			if len(viewers) == 0 {
				delete(h.screens, client.screenCode)
			}
			slog.Info("Viewer disconnected", slog.String("screen_code", client.screenCode))
		}
	}
	h.mu.Unlock()
	client.close()
}

// RegisterClient registers a new client. It reports false once the hub has
// stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.close()
	}
}

// BroadcastToScreen sends an event to every viewer of a screen code
func (h *Hub) BroadcastToScreen(code string, event *types.Event) {
	h.enqueue(&BroadcastMessage{ScreenCode: code, Event: event})
}

// CloseScreen sends a final event to every viewer of code, then closes
// their connections.
func (h *Hub) CloseScreen(code string, event *types.Event) {
	h.enqueue(&BroadcastMessage{ScreenCode: code, Event: event, Disconnect: true})
}

func (h *Hub) enqueue(message *BroadcastMessage) {
	select {
	case h.broadcast <- message:
	default:
		slog.Warn("Broadcast channel is full, dropping message", slog.String("screen_code", message.ScreenCode))
	}
}

func (h *Hub) disconnectScreen(code string) {
	h.mu.Lock()
	viewers := h.screens[code]
	delete(h.screens, code)
	h.mu.Unlock()

	for client := range viewers {
		client.close()
	}
	if len(viewers) > 0 {
		slog.Info("Disconnected viewers of removed screen",
			slog.String("screen_code", code),
			slog.Int("viewers", len(viewers)))
	}
}

func (h *Hub) broadcastToScreen(code string, event *types.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.screens[code] {
		if err := client.SendEvent(event); err != nil {
			slog.Error("Failed to send event to viewer",
				slog.String("screen_code", code),
				slog.String("error", err.Error()))
			go h.UnregisterClient(client)
		}
	}
}

// IsScreenWatched checks if anyone is watching a screen code
func (h *Hub) IsScreenWatched(code string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.screens[code]) > 0
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, viewers := range h.screens {
		n += len(viewers)
	}
	return n
}
