package brackets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastToRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 8), Room: RoomForTournament(3)}
		if hub.Join(client) {
			go client.WritePump()
			go client.ReadPump()
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.RoomSize("tournament_3") == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastToRoom("tournament_4", WebSocketMessage{Type: MessageMatchReported})
	hub.BroadcastToRoom("tournament_3", WebSocketMessage{Type: MessageRoundPaired, Payload: 2, RoomID: "tournament_3"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg WebSocketMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageRoundPaired, msg.Type)
	assert.Equal(t, "tournament_3", msg.RoomID)
	assert.EqualValues(t, 2, msg.Payload)
}
