package websocket

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// ErrHubStopped is returned by Serve after the hub has shut down.
var ErrHubStopped = errors.New("notification hub stopped")

// NewUpgrader accepts browser origins whose host is listed in allowed.
// A "*" entry or an empty list accepts any origin.
func NewUpgrader(allowed []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			for _, a := range allowed {
				if a == "*" || strings.EqualFold(a, origin) || strings.EqualFold(a, u.Host) {
					return true
				}
			}
			return false
		},
	}
}

// Serve upgrades the request and streams sub's events until the peer leaves.
// The caller authenticates the request first.
func (h *Hub) Serve(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, sub Subscriber) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("schema", sub.Schema).
			Int64("userID", sub.UserID).
			Msg("Failed to upgrade connection to WebSocket")
		return err
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 64),
		sub:    sub,
		logger: h.logger,
	}
	if !h.attach(client) {
		conn.Close()
		return ErrHubStopped
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Str("schema", sub.Schema).
		Int64("userID", sub.UserID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
	return nil
}
