package chathub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 256
)

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	userID string
	conn   *websocket.Conn
	hub    *Hub
	send   chan Event

	mu     sync.Mutex
	closed bool
}

// NewWebSocketClient wraps an upgraded connection for the given user.
func NewWebSocketClient(hub *Hub, userID string, conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{
		userID: userID,
		conn:   conn,
		hub:    hub,
		send:   make(chan Event, sendBuffer),
	}
}

func (c *WebSocketClient) UserID() string { return c.userID }

// TrySend queues an event without blocking the caller.
func (c *WebSocketClient) TrySend(evt Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- evt:
		return nil
	default:
		return ErrBackpressure
	}
}

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close marks the client closed and shuts the send channel down, which
// stops the write pump. Safe to call more than once.
func (c *WebSocketClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.conn.Close()
}

// readPump reads inbound frames and dispatches them in arrival order.
// Closing the transport is the only cancellation signal: the deferred
// OnDisconnect runs the full teardown, and the hub makes it idempotent.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.OnDisconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("module", "chathub").Str("user", c.userID).Msg("read error")
			}
			break
		}

		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			log.Debug().Err(err).Str("module", "chathub").Str("user", c.userID).Msg("bad frame")
			c.hub.sendError(c, "malformed frame")
			continue
		}
		c.hub.Dispatch(c, evt)
	}
}

// writePump drains the send channel into the socket and keeps the
// connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
