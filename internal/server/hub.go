// Package server coordinates client registration, event delivery, and
// connection cleanup for the relay via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub owns the set of live WebSocket clients. Registration and
// unregistration flow through channels consumed by Run; delivery goes
// through safeSend, which never blocks the relay on a slow client.
type Hub struct {
	relay *Relay
	cfg   Config
	log   *slog.Logger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	upgrader   websocket.Upgrader

	mutex  sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a hub bound to the relay that will track its connections.
func NewHub(relay *Relay, cfg Config, log *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	origins := newOriginChecker(cfg.AllowedOrigins, log)
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
		relay:      relay,
		cfg:        cfg,
		log:        log,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run processes registration and unregistration until Shutdown. It should be
// called in its own goroutine.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("received nil client registration, skipping")
				continue
			}

			h.mutex.Lock()
			client.closed = false
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mutex.Unlock()

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

			// The client must be registered before Connect so the lobby
			// join ack can reach it.
			h.relay.Connect(client.id, client)
			h.log.Info("client registered", "conn", client.id, "addr", client.addr, "total", clientCount)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; !ok {
				h.mutex.Unlock()
				continue
			}
			delete(h.clients, client)
			client.closed = true
			clientCount := len(h.clients)
			h.mutex.Unlock()

			// Close the channel after releasing the lock.
			close(client.send)
			h.relay.Disconnect(client.id)
			h.log.Info("client unregistered", "conn", client.id, "addr", client.addr, "total", clientCount)
		}
	}
}

// safeSend queues a payload for one client without ever blocking. It reports
// false when the client is unregistered, closed, or its buffer is full.
func (h *Hub) safeSend(client *Client, payload []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Warn("recovered from panic in safeSend", "panic", r)
		}
	}()

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.clients[client]; !exists || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

// shutdownClients closes every active client connection.
func (h *Hub) shutdownClients() {
	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				h.log.Debug("error closing client connection", "conn", client.id, "err", err)
			}
		}
	}

	h.log.Info("closed client connections", "count", len(clients))
}

// Shutdown initiates graceful shutdown and waits for the run loop and all
// client goroutines to finish, or for the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("initiating hub shutdown")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
