package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Conn is the subset of *websocket.Conn the client uses; narrowed for tests.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Client wraps one subscriber connection.
type Client struct {
	id           string
	accountID    int64
	ws           Conn
	send         chan []byte
	writeTimeout time.Duration
	logger       *zap.Logger
	onClose      func(id string)
}

// NewClient builds a client wrapper.
func NewClient(id string, accountID int64, ws Conn, writeTimeout time.Duration, logger *zap.Logger, onClose func(string)) *Client {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		id:           id,
		accountID:    accountID,
		ws:           ws,
		send:         make(chan []byte, 16),
		writeTimeout: writeTimeout,
		logger:       logger,
		onClose:      onClose,
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string {
	return c.id
}

// AccountID returns the authenticated account behind this connection.
func (c *Client) AccountID() int64 {
	return c.accountID
}

// Start launches the read/write pumps and blocks until the connection closes.
func (c *Client) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump drains inbound frames. Subscribers do not send commands; reading
// only detects disconnects and answers pings.
func (c *Client) readPump(ctx context.Context) {
	defer c.cleanup()
	_ = c.ws.SetReadDeadline(time.Now().Add(90 * time.Second))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.logger.Info("subscriber disconnected", zap.String("client_id", c.id), zap.Error(err))
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}

func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// Send enqueues a message, dropping it if the subscriber cannot keep up.
func (c *Client) Send(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("attempted to send on closed channel", zap.String("client_id", c.id))
		}
	}()
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping event, subscriber buffer full", zap.String("client_id", c.id))
	}
}

// Ping sends a ping frame.
func (c *Client) Ping() error {
	return c.write(websocket.PingMessage, []byte("ping"))
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Client) cleanup() {
	close(c.send)
	_ = c.ws.Close()
	if c.onClose != nil {
		c.onClose(c.id)
	}
}
