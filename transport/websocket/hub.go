package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/duel-lobby/game/registry"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Events queued per client before it counts as dead.
	sendBufferSize = 256
)

var (
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("client send buffer full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Lobby pages are served from the same process; any origin may watch
		return true
	},
}

// Attacher is the part of the lobby service the hub needs
type Attacher interface {
	Attach(ctx context.Context, code string, sub registry.Subscriber) error
	Detach(code string, sub registry.Subscriber)
}

// Client represents a WebSocket client
type Client struct {
	id   string
	code string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, code string) *Client {
	return &Client{
		id:   uuid.NewString(),
		code: code,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() string {
	return c.id
}

// Send queues data for the write pump without blocking
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the write pump; safe to call more than once
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub upgrades lobby connections and attaches them to the lobby service
type Hub struct {
	lobbies Attacher
	logger  *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(lobbies Attacher, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		lobbies: lobbies,
		logger:  logger,
	}
}

// ServeWS handles WebSocket requests from clients watching lobby code
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, code string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("code", code), zap.Error(err))
		return
	}

	client := newClient(conn, code)

	if err := h.lobbies.Attach(r.Context(), code, client); err != nil {
		h.logger.Warn("attach failed", zap.String("code", code), zap.Error(err))
		client.Close()
		conn.Close()
		return
	}

	h.logger.Debug("client connected", zap.String("code", code), zap.String("client", client.id))

	// Start client goroutines
	go h.writePump(client)
	go h.readPump(client)
}

// readPump watches the connection for disconnects; inbound payloads are ignored
func (h *Hub) readPump(c *Client) {
	defer func() {
		h.lobbies.Detach(c.code, c)
		c.Close()
		c.conn.Close()
		h.logger.Debug("client disconnected", zap.String("code", c.code), zap.String("client", c.id))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Info("websocket read error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
	}
}

// writePump delivers queued events, one per text frame, and keeps the peer alive
func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The client was closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
