package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/princekumarofficial/zcreens-service/internal/playback"
	"github.com/princekumarofficial/zcreens-service/internal/types"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var (
	ErrClientClosed = errors.New("client connection closed")
	ErrSlowClient   = errors.New("client send buffer full")
)

// ClientMessage is a viewer command. Type is one of the Msg* constants;
// Key is used by MsgKey and Index by MsgGoTo.
type ClientMessage struct {
	Type  string `json:"type"`
	Key   string `json:"key,omitempty"`
	Index int    `json:"index,omitempty"`
}

const (
	MsgKey              = "key"
	MsgGoTo             = "goto"
	MsgNext             = "next"
	MsgPrevious         = "previous"
	MsgTogglePlay       = "toggle_play"
	MsgRestart          = "restart"
	MsgToggleFullscreen = "toggle_fullscreen"
	MsgExitFullscreen   = "exit_fullscreen"
	MsgState            = "state"
)

// Client is one viewer connection driving its own playback session.
type Client struct {
	// The websocket connection
	conn *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	mu     sync.Mutex
	closed bool

	// Screen code the viewer opened
	screenCode string

	session *playback.Session

	// Hub instance
	hub *Hub
}

// NewClient creates a viewer for screenCode. Every change of its playback
// session is pushed to the connection as a playback.state event.
func NewClient(conn *websocket.Conn, screenCode string, hub *Hub, resolver playback.Resolver, opts ...playback.Option) *Client {
	c := &Client{
		conn:       conn,
		send:       make(chan []byte, 256),
		screenCode: screenCode,
		hub:        hub,
	}
	opts = append(opts, playback.OnChange(c.sendSnapshot))
	c.session = playback.NewSession(screenCode, resolver, opts...)
	return c
}

func (c *Client) sendSnapshot(snap playback.Snapshot) {
	if err := c.SendEvent(types.NewEvent(types.EventPlaybackState, snap)); err != nil && !errors.Is(err, ErrClientClosed) {
		slog.Warn("Dropping playback state", slog.String("screen_code", c.screenCode), slog.String("error", err.Error()))
	}
}

// handle applies one viewer command to the session.
func (c *Client) handle(msg ClientMessage) error {
	s := c.session
	switch msg.Type {
	case MsgKey:
		if !s.HandleKey(msg.Key) {
			return errors.New("unbound key: " + msg.Key)
		}
	case MsgGoTo:
		return s.GoTo(msg.Index)
	case MsgNext:
		s.Next()
	case MsgPrevious:
		s.Previous()
	case MsgTogglePlay:
		s.TogglePlay()
	case MsgRestart:
		s.Restart()
	case MsgToggleFullscreen:
		s.ToggleFullscreen()
	case MsgExitFullscreen:
		s.ExitFullscreen()
	case MsgState:
		c.sendSnapshot(s.Snapshot())
	default:
		return errors.New("unknown message type: " + msg.Type)
	}
	return nil
}

// readPump pumps commands from the websocket connection into the session
func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", slog.String("error", err.Error()))
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.SendEvent(types.NewEvent(types.EventPlaybackError, types.PlaybackErrorEvent{Message: "invalid message"}))
			continue
		}
		if err := c.handle(msg); err != nil {
			c.SendEvent(types.NewEvent(types.EventPlaybackError, types.PlaybackErrorEvent{Message: err.Error()}))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One event per frame; viewers parse each frame as JSON.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent queues an event for this client
func (c *Client) SendEvent(event *types.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSlowClient
	}
}

// close stops the session and lets writePump send the close frame.
func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.session.Close()
}

// Start registers the client, starts its pumps and loads the presentation.
func (c *Client) Start(ctx context.Context) {
	if !c.hub.RegisterClient(c) {
		c.close()
		c.conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()

	if err := c.session.Load(ctx); err != nil {
		slog.Info("Viewer session failed to load",
			slog.String("screen_code", c.screenCode),
			slog.String("error", err.Error()))
	}
}

// ScreenCode returns the screen code this client is watching
func (c *Client) ScreenCode() string {
	return c.screenCode
}

// Session exposes the viewer's playback session.
func (c *Client) Session() *playback.Session {
	return c.session
}
