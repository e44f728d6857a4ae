package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/zcreens-service/internal/services/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/types"
	wsClient "github.com/princekumarofficial/zcreens-service/internal/websocket"
)

type mapResolver map[string]error

func (m mapResolver) Resolve(_ context.Context, code string) (*types.Presentation, error) {
	if err, ok := m[code]; ok {
		return nil, err
	}
	return &types.Presentation{
		ID:          "p",
		ScreenCode:  code,
		FileName:    "deck.pdf",
		TotalSlides: 1,
		Slides:      []types.Slide{{PageNumber: 1, Image: "data:x"}},
	}, nil
}

func newServer(t *testing.T) (*httptest.Server, *wsClient.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := wsClient.NewHub()
	go hub.Run(ctx)

	resolver := mapResolver{
		"GONE00": presentations.ErrExpired,
		"NOPE00": presentations.ErrNotFound,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/slideshow/{code}", SlideshowHandler(hub, resolver))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestSlideshowRejectsBeforeUpgrade(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/ws/slideshow/nope00")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws/slideshow/GONE00")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestSlideshowStreamsState(t *testing.T) {
	srv, hub := newServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/slideshow/abc123"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev struct {
		Type types.EventType        `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, types.EventPlaybackState, ev.Type)
	assert.Equal(t, "ready", ev.Data["state"])
	assert.Equal(t, "ABC123", ev.Data["screen_code"])

	assert.Eventually(t, func() bool { return hub.IsScreenWatched("ABC123") }, time.Second, 10*time.Millisecond)
}
