package realtime

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// SnapshotKind marks the first frame of a live feed, carrying the complaint as it was
// when the subscriber connected.
const SnapshotKind models.ComplaintEventKind = "snapshot"

// Client streams one subscription over a websocket connection. The feed is
// server-to-client only; inbound frames are read just to process control messages.
type Client struct {
	conn   *websocket.Conn
	sub    *Subscription
	logger *zap.Logger
}

// NewClient binds a connection to a subscription.
func NewClient(conn *websocket.Conn, sub *Subscription, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{conn: conn, sub: sub, logger: logger}
}

// Serve writes initial (when set) and then every subscription message until the peer
// disconnects, the subscription ends or ctx is cancelled. It closes the connection.
func (c *Client) Serve(ctx context.Context, initial *models.RealtimeMessage) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.readPump()
	}()
	c.writePump(ctx, done, initial)
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("live feed read failed", zap.String("topic", c.sub.Topic()), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump(ctx context.Context, done <-chan struct{}, initial *models.RealtimeMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sub.Close()
		_ = c.conn.Close()
	}()

	var last int64 = -1
	if initial != nil {
		if err := c.write(*initial); err != nil {
			return
		}
		last = initial.Version
	}

	for {
		select {
		case <-ctx.Done():
			c.closeFrame(websocket.CloseGoingAway, "server shutting down")
			return
		case <-done:
			return
		case msg, ok := <-c.sub.C():
			if !ok {
				c.closeFrame(websocket.CloseNormalClosure, "")
				return
			}
			// Updates queued while the snapshot was loaded may already be reflected in it.
			if msg.Version <= last {
				continue
			}
			last = msg.Version
			if err := c.write(msg); err != nil {
				c.logger.Debug("live feed write failed", zap.String("topic", c.sub.Topic()), zap.Error(err))
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

func (c *Client) write(msg models.RealtimeMessage) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *Client) closeFrame(code int, text string) {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}
