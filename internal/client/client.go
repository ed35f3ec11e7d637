package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/logger"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Heartbeats are tiny; anything bigger is not from our page
	maxMessageSize = 512

	// SendBufferSize is the outbound queue depth per client
	SendBufferSize = 64
)

// Client is one open dashboard listening for roster changes.
//
// The send queue is never closed. Close marks the client dropped: TrySend
// refuses from then on and the write loop sends a close frame and shuts
// the socket, which in turn ends the read loop.
type Client struct {
	ID          string
	conn        *websocket.Conn
	send        chan models.ServerMessage
	done        chan struct{}
	hub         Hub
	logger      *logger.Logger
	connectedAt time.Time

	mu               sync.Mutex
	closed           bool
	closeCode        int
	messagesSent     int64
	messagesReceived int64
	lastMessageAt    time.Time
}

// Hub is the part of the broadcast hub a client reports back to
type Hub interface {
	Unregister(client *Client)
}

// NewClient creates a new client instance
func NewClient(id string, conn *websocket.Conn, hub Hub, l *logger.Logger) *Client {
	if l == nil {
		l = logger.NewNop()
	}
	return &Client{
		ID:          id,
		conn:        conn,
		send:        make(chan models.ServerMessage, SendBufferSize),
		done:        make(chan struct{}),
		hub:         hub,
		logger:      l.With(zap.String("client_id", id)),
		connectedAt: time.Now(),
	}
}

// Messages is the outbound queue the write loop drains
func (c *Client) Messages() <-chan models.ServerMessage {
	return c.send
}

// Done is closed once the client has been dropped
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close drops the client with a normal close code. Safe to call more than
// once and from any goroutine.
func (c *Client) Close() {
	c.CloseWithCode(websocket.CloseNormalClosure)
}

// CloseWithCode drops the client; code is sent to the peer in the close
// frame. Only the first call has any effect.
func (c *Client) CloseWithCode(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
	close(c.done)
}

// Serve runs the connection until the peer goes away, the client is
// dropped, or ctx ends. It blocks; all socket writes happen on the write
// loop goroutine it starts.
func (c *Client) Serve(ctx context.Context) {
	go c.writeLoop(ctx)
	c.readLoop()
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg models.ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("unexpected close", zap.Error(err))
			}
			return
		}

		c.updateReceived()
		c.HandleMessage(msg)
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.goodbye(websocket.CloseGoingAway)
			return

		case <-c.done:
			c.goodbye(c.code())
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				c.Close()
				return
			}
			c.updateSent()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

func (c *Client) goodbye(code int) {
	frame := websocket.FormatCloseMessage(code, "")
	if err := c.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait)); err != nil {
		c.logger.Debug("close frame not sent", zap.Error(err))
	}
}

func (c *Client) code() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

// TrySend queues a message without blocking. It returns false when the
// queue is full or the client has been dropped.
func (c *Client) TrySend(msg models.ServerMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// GetStats returns connection statistics
func (c *Client) GetStats() models.ConnectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return models.ConnectionStats{
		ClientID:         c.ID,
		ConnectedAt:      c.connectedAt,
		MessagesSent:     c.messagesSent,
		MessagesReceived: c.messagesReceived,
		LastMessageAt:    c.lastMessageAt,
		BufferSize:       SendBufferSize,
	}
}

// HandleMessage answers one client message. Replies to a dropped client
// are discarded.
func (c *Client) HandleMessage(msg models.ClientMessage) {
	switch msg.Type {
	case models.MessageTypeHeartbeat:
		c.TrySend(models.ServerMessage{
			Type:      models.MessageTypeHeartbeat,
			Payload:   c.GetStats(),
			Timestamp: time.Now(),
		})
	default:
		c.TrySend(models.ServerMessage{
			Type: models.MessageTypeError,
			Payload: models.ErrorMessage{
				Code:    "unknown_message_type",
				Message: fmt.Sprintf("unknown message type: %s", msg.Type),
			},
			Timestamp: time.Now(),
		})
	}
}

func (c *Client) updateSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesSent++
	c.lastMessageAt = time.Now()
}

func (c *Client) updateReceived() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesReceived++
	c.lastMessageAt = time.Now()
}
