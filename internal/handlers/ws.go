package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	EventBoardUpserted = "board_upserted"

	defaultWriteTimeout = 5 * time.Second
)

type BoardEvent struct {
	Event string `json:"event"`
	Title string `json:"title"`
}

// WSHub fans board events out to every subscribed websocket connection.
type WSHub struct {
	connections  map[*websocket.Conn]bool
	mutex        sync.Mutex
	// bounds each write so a stalled subscriber can't hold the hub lock
	writeTimeout time.Duration
}

func NewWSHub() *WSHub {
	return &WSHub{
		connections:  make(map[*websocket.Conn]bool),
		writeTimeout: defaultWriteTimeout,
	}
}

func (hub *WSHub) register(conn *websocket.Conn) {
	hub.mutex.Lock()
	hub.connections[conn] = true
	hub.mutex.Unlock()
}

func (hub *WSHub) unregister(conn *websocket.Conn) {
	hub.mutex.Lock()
	if hub.connections[conn] {
		delete(hub.connections, conn)
		conn.Close()
	}
	hub.mutex.Unlock()
}

// Len returns the number of subscribed connections.
func (hub *WSHub) Len() int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return len(hub.connections)
}

// Broadcast sends event to all connections, dropping the ones that fail.
// Writes happen under the hub lock, so each connection has a single writer.
func (hub *WSHub) Broadcast(event BoardEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal board event: %v", err)
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for conn := range hub.connections {
		conn.SetWriteDeadline(time.Now().Add(hub.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Failed to send WebSocket message: %v", err)
			delete(hub.connections, conn)
			conn.Close()
		}
	}
}

// CloseAll disconnects every subscriber, used on shutdown.
func (hub *WSHub) CloseAll() {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for conn := range hub.connections {
		conn.SetWriteDeadline(time.Now().Add(hub.writeTimeout))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		delete(hub.connections, conn)
	}
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP(r)) {
		sendError(w, "Too many WebSocket connection attempts", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	// Upgrade writes the error response itself
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	h.WSHub.register(conn)
	log.WithFields(log.Fields{
		"request_id": RequestIDFromContext(r.Context()),
		"subject":    SubjectFromContext(r.Context()),
		"remote_ip":  clientIP(r),
	}).Debug("WebSocket subscriber connected")

	// subscribers only listen; reading detects the disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("WebSocket error: %v", err)
			}
			h.WSHub.unregister(conn)
			return
		}
	}
}
