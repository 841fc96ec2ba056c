// Package notify pushes live-reload notifications to connected browsers over
// WebSocket. The hub broadcasts one message per forwarded change batch and
// one per publish emission.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/linkwatch/internal/logging"
)

// Message is the wire format sent to reload clients.
type Message struct {
	Type      string    `json:"type"` // "reload" or "publish"
	Paths     []string  `json:"paths,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub manages reload client connections and broadcasting. All access to the
// clients map is protected by the mutex; Shutdown closes every connection
// exactly once.
type Hub struct {
	logger logging.Logger

	clients      map[*websocket.Conn]struct{}
	clientsMutex sync.Mutex

	shutdownOnce sync.Once
	isShutdown   bool
}

// NewHub creates a reload hub.
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Hub{
		logger:  logger.WithComponent("notify"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and keeps it
// registered until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // local dev tool, any origin may connect
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "websocket accept failed")
		return
	}

	h.clientsMutex.Lock()
	if h.isShutdown {
		h.clientsMutex.Unlock()
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.clientsMutex.Unlock()

	h.logger.Debug(r.Context(), "reload client connected", "clients", count)

	// Block until the client goes away; reads are only used to observe
	// disconnection.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.clientsMutex.Lock()
	delete(h.clients, conn)
	h.clientsMutex.Unlock()
	conn.Close(websocket.StatusNormalClosure, "")
}

// BroadcastReload notifies clients that watched paths changed.
func (h *Hub) BroadcastReload(ctx context.Context, paths []string) {
	h.broadcast(ctx, Message{Type: "reload", Paths: paths, Timestamp: time.Now()})
}

// BroadcastPublish notifies clients that a new build was published.
func (h *Hub) BroadcastPublish(ctx context.Context) {
	h.broadcast(ctx, Message{Type: "publish", Timestamp: time.Now()})
}

func (h *Hub) broadcast(ctx context.Context, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(ctx, err, "marshaling reload message")
		return
	}

	h.clientsMutex.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clientsMutex.Unlock()

	for _, conn := range conns {
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := conn.Write(writeCtx, websocket.MessageText, payload); err != nil {
			h.logger.Debug(ctx, "dropping unresponsive reload client", "error", err.Error())
			h.clientsMutex.Lock()
			delete(h.clients, conn)
			h.clientsMutex.Unlock()
			conn.Close(websocket.StatusPolicyViolation, "write failed")
		}
		cancel()
	}
}

// ClientCount returns the number of connected reload clients.
func (h *Hub) ClientCount() int {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()
	return len(h.clients)
}

// Shutdown closes all connections and rejects new ones.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.clientsMutex.Lock()
		h.isShutdown = true
		for conn := range h.clients {
			conn.Close(websocket.StatusGoingAway, "shutting down")
		}
		h.clients = make(map[*websocket.Conn]struct{})
		h.clientsMutex.Unlock()
	})
}
