package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSMessage is the envelope of every websocket message.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time int64       `json:"time"` // Unix timestamp
}

const (
	MsgTypeGeneration = "generation"
	MsgTypeBest       = "best"
	MsgTypeHallOfFame = "hall_of_fame"
	MsgTypeStatus     = "status"
	MsgTypeError      = "error"
)

const writeWait = 5 * time.Second

// WSHub fans progress messages out to every connected websocket client.
// New clients first receive the latest message of each type.
type WSHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan WSMessage
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	quit       chan struct{}
	closeOnce  sync.Once

	mutex  sync.RWMutex
	latest map[string]WSMessage

	upgrader websocket.Upgrader
	log      *slog.Logger
}

var (
	hubMu sync.RWMutex
	wsHub *WSHub
)

func NewWSHub(log *slog.Logger) *WSHub {
	hub := &WSHub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		quit:       make(chan struct{}),
		latest:     make(map[string]WSMessage),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
	go hub.run()
	return hub
}

// Handler serves /ws for the stream and /state for a JSON snapshot of the
// latest messages.
func (hub *WSHub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.handleWebSocket)
	mux.HandleFunc("/state", hub.handleState)
	return corsMiddleware(mux)
}

func (hub *WSHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade", "err", err)
		return
	}

	// replay before registering so no broadcast writes concurrently
	if err := hub.sendBufferedMessages(ws); err != nil {
		ws.Close()
		return
	}
	select {
	case hub.register <- ws:
	case <-hub.quit:
		ws.Close()
		return
	}
	defer func() {
		select {
		case hub.unregister <- ws:
		case <-hub.quit:
		}
		ws.Close()
	}()

	// drain client frames until the connection drops
	for {
		if _, _, err := ws.NextReader(); err != nil {
			return
		}
	}
}

func (hub *WSHub) handleState(w http.ResponseWriter, r *http.Request) {
	hub.mutex.RLock()
	state := make(map[string]WSMessage, len(hub.latest))
	for k, v := range hub.latest {
		state[k] = v
	}
	hub.mutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		hub.log.Warn("state encode", "err", err)
	}
}

func (hub *WSHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client] = true

		case client := <-hub.unregister:
			delete(hub.clients, client)

		case message := <-hub.broadcast:
			for client := range hub.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteJSON(message); err != nil {
					// closing ends its reader loop
					client.Close()
					delete(hub.clients, client)
				}
			}

		case <-hub.quit:
			for client := range hub.clients {
				client.Close()
			}
			return
		}
	}
}

// Broadcast queues a message for every client. It never blocks; when the
// queue is full the message is dropped.
func (hub *WSHub) Broadcast(msgType string, data interface{}) {
	msg := WSMessage{Type: msgType, Data: data, Time: time.Now().Unix()}

	hub.mutex.Lock()
	hub.latest[msgType] = msg
	hub.mutex.Unlock()

	select {
	case hub.broadcast <- msg:
	default:
	}
}

func (hub *WSHub) Close() {
	hub.closeOnce.Do(func() { close(hub.quit) })
}

// sendBufferedMessages sends the connection status and the latest message
// of each type to a new client.
func (hub *WSHub) sendBufferedMessages(ws *websocket.Conn) error {
	status := WSMessage{
		Type: MsgTypeStatus,
		Data: map[string]interface{}{"status": "running", "msg": "dashboard connected"},
		Time: time.Now().Unix(),
	}
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(status); err != nil {
		return err
	}

	hub.mutex.RLock()
	latest := make([]WSMessage, 0, len(hub.latest))
	for _, t := range []string{MsgTypeStatus, MsgTypeGeneration, MsgTypeBest, MsgTypeHallOfFame, MsgTypeError} {
		if msg, ok := hub.latest[t]; ok {
			latest = append(latest, msg)
		}
	}
	hub.mutex.RUnlock()

	for _, msg := range latest {
		if err := ws.WriteJSON(msg); err != nil {
			return err
		}
	}
	return nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartWebServer serves the hub on port until ctx is cancelled. The
// returned function shuts the server down and waits for it.
func StartWebServer(ctx context.Context, port int, log *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("web server: %w", err)
	}

	hub := NewWSHub(log)
	hubMu.Lock()
	wsHub = hub
	hubMu.Unlock()

	srv := &http.Server{Handler: hub.Handler(), ReadHeaderTimeout: 5 * time.Second}
	served := make(chan struct{})
	go func() {
		defer close(served)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("web server", "err", err)
		}
	}()
	log.Info("progress stream", "ws", fmt.Sprintf("ws://localhost:%d/ws", port), "state", fmt.Sprintf("http://localhost:%d/state", port))

	var once sync.Once
	stop := func() {
		once.Do(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			hub.Close()
			<-served

			hubMu.Lock()
			wsHub = nil
			hubMu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return stop, nil
}

// Broadcast sends to the running hub, if any.
func Broadcast(msgType string, data interface{}) {
	hubMu.RLock()
	hub := wsHub
	hubMu.RUnlock()
	if hub != nil {
		hub.Broadcast(msgType, data)
	}
}
