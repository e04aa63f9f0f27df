// Package stream broadcasts dice poses to websocket viewers.
// The simulation never waits on the network: a viewer too slow to take a
// frame within the write timeout is dropped.
package stream

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/akmonengine/dice"
	"github.com/gorilla/websocket"
)

const DefaultWriteTimeout = 50 * time.Millisecond

// Frame is one broadcast snapshot of a world
type Frame struct {
	Step    uint64           `json:"step"`
	Bodies  []dice.BodyState `json:"bodies"`
	Settled bool             `json:"settled"`
	Total   int              `json:"total"`
}

// NewFrame captures the current state of world
func NewFrame(world *dice.World) Frame {
	total, settled := world.Total()
	return Frame{
		Step:    world.Steps(),
		Bodies:  world.Snapshot(),
		Settled: settled,
		Total:   total,
	}
}

// Hub tracks the connected viewers. It is an http.Handler: mount it on the
// path viewers dial.
type Hub struct {
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	logger       *slog.Logger

	clients map[*SafeWriter]struct{}
	mu      sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		writeTimeout: DefaultWriteTimeout,
		logger:       logger,
		clients:      make(map[*SafeWriter]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the viewer until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	writer := NewSafeWriter(conn)
	h.mu.Lock()
	h.clients[writer] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("viewer connected", "remote", r.RemoteAddr)

	// Viewers only listen; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(writer)
	h.logger.Info("viewer disconnected", "remote", r.RemoteAddr)
}

// Len returns the number of connected viewers
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends frame to every viewer and returns how many received it
func (h *Hub) Broadcast(frame Frame) int {
	h.mu.RLock()
	writers := make([]*SafeWriter, 0, len(h.clients))
	for writer := range h.clients {
		writers = append(writers, writer)
	}
	h.mu.RUnlock()

	sent := 0
	for _, writer := range writers {
		if err := writer.WriteJSON(frame, h.writeTimeout); err != nil {
			h.logger.Debug("dropping viewer", "error", err)
			h.remove(writer)
			continue
		}
		sent++
	}
	return sent
}

// Close disconnects every viewer
func (h *Hub) Close() {
	h.mu.Lock()
	writers := h.clients
	h.clients = make(map[*SafeWriter]struct{})
	h.mu.Unlock()

	for writer := range writers {
		_ = writer.Close()
	}
}

func (h *Hub) remove(writer *SafeWriter) {
	h.mu.Lock()
	_, ok := h.clients[writer]
	delete(h.clients, writer)
	h.mu.Unlock()

	if ok {
		_ = writer.Close()
	}
}
