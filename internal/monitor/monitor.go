// Package monitor exposes a read-only, live view of the scheduler over a
// websocket, the Go-native analogue of the reference kernel's serial debug
// console: instead of a human watching scrolling text over a UART, a
// browser (or any websocket client) watches kernel.Snapshot values stream
// in, one each time the polled tick count has advanced.
package monitor

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/han0133/pintos-jungle-log/kernel"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans scheduler snapshots out to every connected client.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// ServeWS upgrades r to a websocket connection and registers it to receive
// future broadcasts.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("monitor: upgrade failed: %v", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// The feed is one-way; read only to notice when the client disconnects.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// broadcast pushes snap as JSON to every connected client, dropping any
// client whose write fails.
func (h *Hub) broadcast(snap kernel.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Printf("monitor: marshal snapshot: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// Run polls the scheduler every interval and pushes a snapshot to every
// connected client whenever the tick count advanced, until ctx is canceled.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastTicks uint64
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := kernel.TakeSnapshot()
			if !first && snap.Ticks == lastTicks {
				continue
			}
			first = false
			lastTicks = snap.Ticks
			h.broadcast(snap)
		}
	}
}

// Start binds addr and returns the Hub plus a kernel.RegisterStartupTask
// function. The returned function only does the part system_start needs to
// wait on — binding the listener — then hands the actual serving and
// polling loops off to their own background goroutines and reports ready
// immediately, so system_start's errgroup.Wait does not block for the
// monitor's entire lifetime.
func Start(addr string) (*Hub, func(context.Context) error) {
	hub := NewHub()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	srv := &http.Server{Addr: addr, Handler: mux}

	task := func(ctx context.Context) error {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				log.Printf("monitor: serve: %v", err)
			}
		}()
		go hub.Run(context.Background(), 50*time.Millisecond)
		log.Printf("monitor: listening on %s (/ws)", addr)
		return nil
	}
	return hub, task
}
