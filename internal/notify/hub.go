// Package notify pushes real-time events (WhatsApp QR codes, connection
// status) to a business account's open dashboard sockets.
package notify

import (
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
)

// Topics delivered over the per-user socket.
const (
	TopicQR       = "/queue/qr"
	TopicWAStatus = "/queue/wa-status"
)

// Frame is one pushed event.
type Frame struct {
	Destination string `json:"destination"`
	Body        any    `json:"body"`
}

// wsConn wraps a websocket.Conn with a write mutex.
// gorilla/websocket does NOT support concurrent writes.
type wsConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) WriteJSONSafe(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteJSON(v)
}

// Hub tracks open sockets per user ID. A user with no socket simply
// misses the event; nothing is queued.
type Hub struct {
	mu    sync.Mutex
	conns map[int64]map[*wsConn]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[int64]map[*wsConn]bool)}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades a dashboard connection. The user is identified by
// the userId query parameter; authentication happens upstream of this
// core.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}

	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Notify] ⚠️ upgrade failed: %v", err)
		return
	}
	conn := &wsConn{Conn: raw}

	h.mu.Lock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*wsConn]bool)
	}
	h.conns[userID][conn] = true
	h.mu.Unlock()

	log.Printf("[Notify] 🔗 user %d connected", userID)

	defer func() {
		raw.Close()
		h.mu.Lock()
		delete(h.conns[userID], conn)
		if len(h.conns[userID]) == 0 {
			delete(h.conns, userID)
		}
		h.mu.Unlock()
		log.Printf("[Notify] 🔌 user %d disconnected", userID)
	}()

	// Drain reads so close/ping frames are processed; the hub never
	// expects client payloads.
	for {
		if _, _, err := raw.ReadMessage(); err != nil {
			return
		}
	}
}

// SendToUser pushes one event to every open socket of the user. Write
// failures are logged and the event dropped for that socket.
func (h *Hub) SendToUser(userID int64, topic string, body any) {
	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns[userID]))
	for c := range h.conns[userID] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	frame := Frame{Destination: topic, Body: body}
	for _, c := range conns {
		if err := c.WriteJSONSafe(frame); err != nil {
			log.Printf("[Notify] ⚠️ push to user %d failed: %v", userID, err)
		}
	}
}

// Connected reports whether the user has at least one open socket.
func (h *Hub) Connected(userID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID]) > 0
}
