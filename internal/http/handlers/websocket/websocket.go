package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/princekumarofficial/zcreens-service/internal/playback"
	"github.com/princekumarofficial/zcreens-service/internal/screencode"
	"github.com/princekumarofficial/zcreens-service/internal/services/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/utils/response"
	wsClient "github.com/princekumarofficial/zcreens-service/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Screens are opened from any origin by typing the code.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SlideshowHandler opens a playback session for a screen code
// @Summary Watch a presentation
// @Description Upgrades to a WebSocket carrying playback.state snapshots. Viewers send key, goto, next, previous, toggle_play, restart, toggle_fullscreen and exit_fullscreen messages.
// @Tags slideshow
// @Param code path string true "Screen code"
// @Success 101 "Switching Protocols"
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 410 {object} response.Response
// @Router /ws/slideshow/{code} [get]
func SlideshowHandler(hub *wsClient.Hub, resolver playback.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := screencode.Normalize(r.PathValue("code"))
		if code == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("screen code is required")))
			return
		}

		// Fail with a plain HTTP status before upgrading so the viewer can
		// tell a missing code from an expired one.
		if _, err := resolver.Resolve(r.Context(), code); err != nil {
			switch {
			case errors.Is(err, presentations.ErrNotFound):
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New(playback.MessageNotFound)))
			case errors.Is(err, presentations.ErrExpired):
				response.WriteJSON(w, http.StatusGone, response.GeneralError(errors.New(playback.MessageExpired)))
			default:
				slog.Error("Failed to resolve screen code", slog.String("screen_code", code), slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("internal server error")))
			}
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		// The request context ends with this handler; the session outlives it.
		client := wsClient.NewClient(conn, code, hub, resolver)
		client.Start(context.WithoutCancel(r.Context()))

		slog.Info("Slideshow connection established", slog.String("screen_code", code))
	}
}
