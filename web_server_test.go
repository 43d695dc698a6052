package main

import (
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

func TestWSHubReplayAndStream(t *testing.T) {
	hub := NewWSHub(quietLog)
	defer hub.Close()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	hub.Broadcast(MsgTypeBest, map[string]string{"expression": "(x + 1)"})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgTypeStatus, msg.Type)
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgTypeBest, msg.Type)
	assert.Equal(t, map[string]interface{}{"expression": "(x + 1)"}, msg.Data)

	// registration races the first broadcasts, so keep sending until one
	// arrives
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				hub.Broadcast(MsgTypeGeneration, GenerationData{Iteration: 7, Best: 0.25})
			}
		}
	}()
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgTypeGeneration, msg.Type)
	data := msg.Data.(map[string]interface{})
	assert.Equal(t, 7.0, data["iteration"])
	assert.Equal(t, 0.25, data["best"])
}

func TestWSHubState(t *testing.T) {
	hub := NewWSHub(quietLog)
	defer hub.Close()
	hub.Broadcast(MsgTypeStatus, map[string]string{"status": "running"})

	rec := httptest.NewRecorder()
	hub.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var state map[string]WSMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.Contains(t, state, MsgTypeStatus)
	assert.Equal(t, map[string]interface{}{"status": "running"}, state[MsgTypeStatus].Data)
}

func TestBroadcastWithoutServer(t *testing.T) {
	assert.NotPanics(t, func() {
		SendStatus("running", "no hub")
		SendHallOfFameUpdate(NewHallOfFame(2))
	})
}
