package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/session"
	"github.com/gorilla/websocket"
)

// Events feed constants.
const (
	eventBufferSize = 32
	writeWait       = 10 * time.Second
	pingPeriod      = 30 * time.Second
	pongWait        = 2 * pingPeriod
)

// EventHub fans session changes out to websocket clients. A client that
// falls behind loses messages instead of blocking mutations.
type EventHub struct {
	mu       sync.Mutex
	clients  map[*eventClient]struct{}
	session  *session.Session
	upgrader websocket.Upgrader
	metrics  *Metrics
	log      *logger.Logger
}

type eventClient struct {
	send chan []byte
}

// NewEventHub creates a hub and registers it as a session hook.
func NewEventHub(sess *session.Session, metrics *Metrics, log *logger.Logger) *EventHub {
	hub := &EventHub{
		mu:      sync.Mutex{},
		clients: make(map[*eventClient]struct{}),
		session: sess,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		metrics: metrics,
		log:     log,
	}

	sess.OnMutate(hub.Publish)

	return hub
}

// Publish encodes change and queues it for every connected client.
func (h *EventHub) Publish(change session.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}

	payload, err := json.Marshal(toEventMessage(change, h.session.Profiles()))
	if err != nil {
		h.log.Error("Failed to marshal %s event: %v", change.Entry, err)

		return
	}

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.log.Warn("Events client is behind, dropping %s event", change.Entry)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Failed to upgrade events connection: %v", err)

		return
	}

	client := &eventClient{send: make(chan []byte, eventBufferSize)}
	h.register(client)

	done := make(chan struct{})

	go h.readLoop(conn, done)

	h.writeLoop(conn, client, done)
	h.unregister(client)

	closeErr := conn.Close()
	if closeErr != nil {
		h.log.Warn("Failed to close events connection: %v", closeErr)
	}
}

// readLoop discards client frames and closes done when the peer goes away.
func (h *EventHub) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			return
		}
	}
}

func (h *EventHub) writeLoop(conn *websocket.Conn, client *eventClient, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case payload := <-client.send:
			err := h.write(conn, websocket.TextMessage, payload)
			if err != nil {
				return
			}
		case <-ticker.C:
			err := h.write(conn, websocket.PingMessage, nil)
			if err != nil {
				return
			}
		}
	}
}

func (h *EventHub) write(conn *websocket.Conn, messageType int, payload []byte) error {
	err := conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err != nil {
		return err
	}

	return conn.WriteMessage(messageType, payload)
}

func (h *EventHub) register(client *eventClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.eventClients.Inc()
	}
}

func (h *EventHub) unregister(client *eventClient) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.eventClients.Dec()
	}
}
