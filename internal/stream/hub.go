// Package stream pushes snapshot updates to connected dashboard clients over
// WebSocket, so browsers get fresh data between their own polls.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"SigBoard/internal/domain/models"
	"SigBoard/pkg/logger"
	"SigBoard/pkg/metrics"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	sendBufferSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The dashboard is cookie-gated before the upgrade; origin checks add
	// nothing on top of that here.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans snapshot updates out to connected WebSocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  *logger.Logger
	metrics *metrics.Recorder
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a WebSocket hub.
func NewHub(l *logger.Logger, m *metrics.Recorder) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  l,
		metrics: m,
	}
}

// ServeWS upgrades the request and registers the connection. Blocks until the
// client disconnects.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.add(cl)
	h.logger.Debug("stream client connected", logger.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

// Broadcast sends a snapshot to every connected client. Clients whose send
// buffer is full are dropped rather than blocking the poller.
func (h *Hub) Broadcast(snap models.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("stream marshal failed", logger.Error(err))
		return
	}

	h.mu.Lock()
	for cl := range h.clients {
		select {
		case cl.send <- payload:
		default:
			delete(h.clients, cl)
			close(cl.send)
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.RecordStreamClients(n)
}

// Shutdown closes every client connection.
func (h *Hub) Shutdown(context.Context) error {
	h.mu.Lock()
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
	h.metrics.RecordStreamClients(0)
	return nil
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.RecordStreamClients(n)
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.RecordStreamClients(n)
}

func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-cl.send:
			if !ok {
				_ = cl.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains inbound frames to detect disconnects; the dashboard stream
// is one-way.
func (h *Hub) readLoop(cl *client) {
	defer func() {
		h.remove(cl)
		cl.conn.Close()
	}()
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
