package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/akshita317/object-detection/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	broadcastBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is a message pushed to every connected viewer.
type Event struct {
	Type   string          `json:"type"`
	Report *session.Report `json:"report,omitempty"`
}

// Event types.
const (
	EventAnalysis = "analysis"
	EventReset    = "reset"
)

// Hub fans completed analyses out to websocket viewers. Run owns all writes
// to the connections.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	log        logrus.FieldLogger
}

// NewHub creates a hub. Nothing is delivered until Run is started.
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		log:        log.WithField("component", "hub"),
	}
}

// Run delivers broadcasts until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.log.WithField("clients", count).Info("Viewer connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.log.WithField("clients", count).Info("Viewer disconnected")

		case message := <-h.broadcast:
			h.send(websocket.TextMessage, message)

		case <-ticker.C:
			h.send(websocket.PingMessage, nil)
		}
	}
}

func (h *Hub) send(messageType int, data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(messageType, data); err != nil {
			h.log.WithError(err).Warn("Dropping viewer")
			delete(h.clients, client)
			client.Close()
		}
	}
}

// Broadcast queues message for every viewer. When the queue is full the
// message is dropped.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("Broadcast queue full, dropping message")
	}
}

// Publish encodes ev and broadcasts it.
func (h *Hub) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Error("Failed to encode event")
		return
	}
	h.Broadcast(data)
}

// BroadcastAnalysis publishes a's report, annotated image included. It has
// the signature of session.Config.OnComplete.
func (h *Hub) BroadcastAnalysis(a *session.Analysis) {
	report, err := a.Report(true)
	if err != nil {
		h.log.WithError(err).WithField("analysis", a.ID).Error("Failed to build report")
		return
	}
	h.Publish(Event{Type: EventAnalysis, Report: report})
}

// BroadcastReset tells viewers the current result was cleared. It has the
// signature of session.Config.OnReset.
func (h *Hub) BroadcastReset() {
	h.Publish(Event{Type: EventReset})
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and keeps the viewer registered until it
// disconnects. Viewers only receive; anything they send is discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	select {
	case h.unregister <- conn:
	case <-h.done:
		conn.Close()
	}
}
