// Package feed is the outward broadcast surface: a websocket hub that hands
// each subscriber a full-state snapshot and then streams incremental events.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SnapshotFunc produces the current full-state payload for a new subscriber.
type SnapshotFunc func() any

// Hub fans events out to websocket subscribers. Publish never blocks the
// caller: events queue on a buffered channel and are dropped with a log line
// when subscribers cannot keep up.
type Hub struct {
	snapshot SnapshotFunc
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	events chan models.Event
}

func NewHub(snapshot SnapshotFunc, logger *zap.Logger) *Hub {
	return &Hub{
		snapshot: snapshot,
		logger:   logger,
		clients:  make(map[*websocket.Conn]bool),
		events:   make(chan models.Event, 256),
	}
}

// Publish queues an event for broadcast. Drops when the queue is full so
// the deliberation loop never stalls on slow consumers.
func (h *Hub) Publish(event models.Event) {
	select {
	case h.events <- event:
	default:
		h.logger.Warn("feed queue full, event dropped", zap.String("type", string(event.Type)))
	}
}

// Run is the single broadcast goroutine. All client writes happen here.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case event := <-h.events:
			h.broadcast(event)
		}
	}
}

func (h *Hub) broadcast(event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("event not serializable", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// ServeHTTP upgrades a subscriber, sends the initial snapshot and registers
// the connection for incremental events.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	var payload any
	if h.snapshot != nil {
		payload = h.snapshot()
	}
	initial, err := json.Marshal(models.NewEvent(models.EventSnapshot, payload))
	if err != nil {
		h.logger.Error("snapshot not serializable", zap.Error(err))
		conn.Close()
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, initial); err != nil {
		conn.Close()
		return
	}
	h.clients[conn] = true
}

// Serve runs the hub's HTTP listener until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	h.logger.Info("feed server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
