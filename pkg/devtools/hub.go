package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// CommitEvent is sent to stream clients for every commit.
type CommitEvent struct {
	ID        string   `json:"id"`
	Root      string   `json:"root"`
	Seq       uint64   `json:"seq"`
	Lanes     string   `json:"lanes"`
	Mutations int      `json:"mutations"`
	Ops       []string `json:"ops,omitempty"`
	Duration  string   `json:"duration"`
}

const (
	writeWait = 5 * time.Second
	// sendQueue is the number of events buffered per client. A client that
	// falls this far behind is dropped.
	sendQueue = 64
)

// client is one stream connection. Its writer goroutine owns conn writes.
type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub manages the websocket clients of the commit stream and keeps the
// most recent events. Publish never blocks on a client.
type Hub struct {
	logger   *slog.Logger
	clients  map[*client]bool
	history  []CommitEvent
	limit    int
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewHub creates a hub remembering up to limit events.
func NewHub(logger *slog.Logger, limit int) *Hub {
	if limit <= 0 {
		limit = 100
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*client]bool),
		limit:   limit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local inspector
			},
		},
	}
}

// HandleWebSocket upgrades the connection and keeps it registered until the
// client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendQueue)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Debug("stream client connected", "remote", req.RemoteAddr)

	go h.writeLoop(c)

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

// writeLoop sends queued events until the queue is closed or a write fails.
func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("stream write failed", "error", err)
			h.remove(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Publish records ev and queues it for every client.
func (h *Hub) Publish(ev CommitEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.history = append(h.history, ev)
	if over := len(h.history) - h.limit; over > 0 {
		h.history = append(h.history[:0], h.history[over:]...)
	}
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
			delete(h.clients, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn("stream client too slow, dropped", "queued", sendQueue)
		c.close()
	}
}

// History returns the remembered events, oldest first.
func (h *Hub) History() []CommitEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]CommitEvent, len(h.history))
	copy(out, h.history)
	return out
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}
