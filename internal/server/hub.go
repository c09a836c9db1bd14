// internal/server/hub.go
package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds every write to a reload client so a stalled browser tab
// cannot hold the hub lock.
const writeWait = 2 * time.Second

// reloadMessage is what pages listen for to refresh themselves.
var reloadMessage = []byte("reload")

// The dev server only listens locally, so any origin may connect.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub owns the open live-reload sockets. Once closed it refuses new sockets,
// so a page that reconnects during shutdown is turned away.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
}

func newHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

// add tracks conn and reports whether the hub accepted it.
func (h *Hub) add(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[conn] = struct{}{}
	log.Printf("Live-reload client connected from %s.", conn.RemoteAddr())
	return true
}

// drop forgets conn and closes it. Dropping an unknown socket is a no-op.
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(conn)
}

func (h *Hub) dropLocked(conn *websocket.Conn) {
	if _, ok := h.conns[conn]; !ok {
		return
	}
	delete(h.conns, conn)
	_ = conn.Close()
}

func (h *Hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// reload asks every page to refresh. Sockets that cannot take the write are
// dropped.
func (h *Hub) reload() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, reloadMessage); err != nil {
			log.Printf("Dropping live-reload client %s: %v", conn.RemoteAddr(), err)
			h.dropLocked(conn)
		}
	}
}

// Close sends a going-away close frame to every page and closes its socket.
// http.Server.Shutdown does not track hijacked connections, so the dev server
// calls this before shutting down.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true

	frame := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for conn := range h.conns {
		_ = conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait))
		h.dropLocked(conn)
	}
	log.Println("Live-reload clients disconnected.")
}

// serveWs upgrades the request and holds the socket until the page or the hub
// goes away. Pages never send anything; reads only detect the close.
func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	if !hub.add(conn) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	defer hub.drop(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
