package gateway

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 8192

	// sendBufferSize bounds the per-connection delivery queue. A peer that
	// cannot drain this many frames loses the oldest-pending events rather
	// than stalling delivery to everyone else.
	sendBufferSize = 64
)

// Conn is one live connection as seen by the registry, tracker, and
// pipeline. The concrete Client wraps the WebSocket; tests supply fakes.
type Conn interface {
	ID() string
	Identity() support.Identity
	// Enqueue queues an already-marshaled frame for delivery. It never
	// blocks; it reports false when the frame was dropped.
	Enqueue(frame []byte) bool
}

// Client owns one WebSocket connection and its buffered delivery queue.
type Client struct {
	id       string
	identity support.Identity
	ws       *websocket.Conn
	send     chan []byte
	closed   chan struct{}
	once     sync.Once
	dropped  uint64
	limiter  *rateLimiter
}

// NewClient creates a client for an authenticated connection.
func NewClient(id string, identity support.Identity, ws *websocket.Conn) *Client {
	return &Client{
		id:       id,
		identity: identity,
		ws:       ws,
		send:     make(chan []byte, sendBufferSize),
		closed:   make(chan struct{}),
		limiter:  newRateLimiter(burstSize, framesPerSecond),
	}
}

// ID returns the connection ID.
func (c *Client) ID() string { return c.id }

// Identity returns the identity attached at authentication time.
func (c *Client) Identity() support.Identity { return c.identity }

// Enqueue queues a frame without blocking. On a full buffer the frame is
// dropped and counted; delivery to other peers is unaffected.
func (c *Client) Enqueue(frame []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		atomic.AddUint64(&c.dropped, 1)
		return false
	}
}

// Dropped returns the number of frames dropped for this connection.
func (c *Client) Dropped() uint64 {
	return atomic.LoadUint64(&c.dropped)
}

// Close tears the connection down. Safe to call from multiple paths; only
// the first call takes effect.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.closed)
		c.ws.Close()
	})
}

// WritePump drains the send queue onto the socket and keeps the peer alive
// with pings. It owns all writes to the socket. Runs until the connection
// closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.closed:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
