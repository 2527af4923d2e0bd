package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-marketplace/internal/config"
)

// Client is one authenticated realtime connection. Identity is attached at
// upgrade time by the identity gate and never re-validated per message.
type Client struct {
	ID          string
	UserID      string
	IsRepairman bool
	HasShop     bool

	conn   *websocket.Conn
	send   chan []byte
	cfg    config.RealtimeConfig
	logger *zap.Logger

	// sendMu orders queued sends against closeSend so a publish racing a
	// disconnect fails instead of writing to a closed channel.
	sendMu     sync.Mutex
	sendClosed bool
}

// NewClient wraps an upgraded connection.
func NewClient(id, userID string, isRepairman, hasShop bool, conn *websocket.Conn, cfg config.RealtimeConfig, logger *zap.Logger) *Client {
	bufferSize := cfg.SendBufferSize
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Client{
		ID:          id,
		UserID:      userID,
		IsRepairman: isRepairman,
		HasShop:     hasShop,
		conn:        conn,
		send:        make(chan []byte, bufferSize),
		cfg:         cfg,
		logger:      logger,
	}
}

// trySend queues a payload without blocking. Returns false when the buffer
// is full or the connection is already closing.
func (c *Client) trySend(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Send queues an outbound frame for this connection only.
func (c *Client) Send(frame OutboundFrame) bool {
	payload := frame.Encode()
	if payload == nil {
		return false
	}
	return c.trySend(payload)
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

func (c *Client) writeWait() time.Duration {
	if c.cfg.WriteWaitSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.cfg.WriteWaitSec) * time.Second
}

func (c *Client) pongWait() time.Duration {
	if c.cfg.PongWaitSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.cfg.PongWaitSec) * time.Second
}

// WritePump drains the send channel onto the wire and keeps the connection
// alive with pings. Runs in its own goroutine per connection.
func (c *Client) WritePump() {
	pingPeriod := c.pongWait() * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait()))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait()))
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// ReadPump reads frames until the connection drops and hands them to the
// handler. Blocks; the caller runs it on the upgrade goroutine.
func (c *Client) ReadPump(handle func(*Client, InboundFrame)) {
	defer func() {
		_ = c.conn.Close()
	}()

	if c.cfg.MaxMessageBytes > 0 {
		c.conn.SetReadLimit(c.cfg.MaxMessageBytes)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error",
					zap.String("conn_id", c.ID),
					zap.Error(err))
			}
			return
		}

		var frame InboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.logger.Warn("malformed frame",
				zap.String("conn_id", c.ID),
				zap.Error(err))
			continue
		}
		handle(c, frame)
	}
}
