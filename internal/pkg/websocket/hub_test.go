package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub(zerolog.Nop())
	go h.Run(ctx)
	return h
}

func dial(t *testing.T, h *Hub, sub Subscriber) *websocket.Conn {
	t.Helper()
	up := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(up, w, r, sub)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return h.ClientCount(sub) == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestHub_PublishReachesOnlyTheSubscriber(t *testing.T) {
	h := startHub(t)
	alice := Subscriber{Schema: "school_a", UserID: 7}
	conn := dial(t, h, alice)

	// same user id in another school must not receive it
	h.Publish("school_b", []int64{7}, "notification", map[string]string{"title": "other"})
	h.Publish("school_a", []int64{7}, "notification", map[string]string{"title": "hello"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, "notification", ev.Type)
	assert.Equal(t, "hello", ev.Data["title"])
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	h := startHub(t)
	sub := Subscriber{Schema: "school_a", UserID: 1}
	conn := dial(t, h, sub)

	conn.Close()
	assert.Eventually(t, func() bool { return h.ClientCount(sub) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	up := NewUpgrader([]string{"app.school.test"})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://app.school.test")
	assert.True(t, up.CheckOrigin(r))

	r.Header.Set("Origin", "https://evil.test")
	assert.False(t, up.CheckOrigin(r))
}
