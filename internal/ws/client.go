package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client represents one live browser connection. The underlying socket's
// send/receive lifecycle is owned by the Handler's pumps; Client only provides
// the buffered, serialized write path and the closed flag.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	mu        sync.Mutex
	closed    bool
}

// NewClient creates a client for an upgraded WebSocket connection.
func NewClient(conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

// Send queues a frame to be written to the browser. Returns false if the
// client is closed or its send buffer is full; a full buffer closes the
// client, since a tab that stopped reading is as good as gone.
func (c *Client) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		c.closeLocked()
		return false
	}
}

// Close closes the client's send path. Safe to call multiple times.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed returns true if the client's send path is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// SessionID returns the session code this client was bound with, or "" if the
// tab connected without one.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// SendChan returns the send channel drained by the write pump.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}
