// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Client is one WebSocket connection. It carries the opaque connection
// identifier the relay tracks membership by, and implements EventSink so the
// relay can deliver events to it.
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	addr           string
	closed         bool
	log            *slog.Logger
	maxMessageSize int64
	rateLimiter    *rateLimiter
}

// NewClient creates a client for an upgraded connection. The send channel is
// buffered so slow consumers do not stall the relay.
func NewClient(id string, conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := hub.cfg
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, 256),
		hub:            hub,
		addr:           addr,
		log:            hub.log,
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
	}
}

// ID returns the opaque connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Deliver implements EventSink: it wraps the event in the wire envelope and
// queues it on the client's send channel. It reports false when the client
// is gone or its buffer is full; the event is then dropped for this client.
func (c *Client) Deliver(event string, data any) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		c.log.Error("failed to marshal event data", "conn", c.id, "event", event, "err", err)
		return false
	}
	payload, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		c.log.Error("failed to marshal envelope", "conn", c.id, "event", event, "err", err)
		return false
	}
	return c.hub.safeSend(c, payload)
}

// readPump consumes frames from the connection until it dies, dispatching
// each decoded envelope to the relay. It owns the unregister on exit.
func (c *Client) readPump() {
	defer func() {
		// During shutdown the run loop is gone; the context case prevents
		// the unregister send from blocking forever.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Debug("error closing connection in readPump", "conn", c.id, "err", err)
		}
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.rateLimiter.allow() {
			c.log.Warn("rate limit exceeded, discarding message", "conn", c.id, "addr", c.addr)
			continue
		}

		var env Envelope
		if err := json.Unmarshal(rawMessage, &env); err != nil {
			c.log.Debug("invalid frame", "conn", c.id, "err", err)
			c.Deliver(eventRoomError, "Invalid message format.")
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("message exceeded maximum size", "conn", c.id, "max_bytes", c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Debug("client disconnected", "conn", c.id, "err", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Debug("connection closed", "conn", c.id, "err", err)
	default:
		c.log.Warn("websocket read error", "conn", c.id, "err", err)
	}
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Debug("error closing connection in writePump", "conn", c.id, "err", err)
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.writeFrame(message) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("ping failed", "conn", c.id, "err", err)
				return
			}
		case <-c.hub.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// writeFrame writes one message plus anything else already queued, one frame
// per message so clients can decode envelopes independently.
func (c *Client) writeFrame(message []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Debug("write failed", "conn", c.id, "err", err)
		}
		return false
	}

	n := len(c.send)
	for i := 0; i < n; i++ {
		if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
			if !isExpectedCloseError(err) {
				c.log.Debug("write failed", "conn", c.id, "err", err)
			}
			return false
		}
	}
	return true
}
