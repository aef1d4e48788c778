package live

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/kickscore/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 16
)

// Client is one websocket subscriber of a project.
type Client struct {
	ID        string
	ProjectID string

	conn   *websocket.Conn
	send   chan Message
	hub    *Hub
	logger logger.Logger
}

func newClient(id, projectID string, conn *websocket.Conn, h *Hub) *Client {
	return &Client{
		ID:        id,
		ProjectID: projectID,
		conn:      conn,
		send:      make(chan Message, sendBufferSize),
		hub:       h,
		logger:    h.logger,
	}
}

// trySend queues msg without blocking and reports whether it fit.
func (c *Client) trySend(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// readPump discards inbound frames and detects disconnects.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug(ctx, "live client closed unexpectedly", logger.String("client_id", c.ID), logger.Error(err))
			}
			return
		}
	}
}

// writePump forwards queued messages and keeps the connection alive.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug(ctx, "live write failed", logger.String("client_id", c.ID), logger.Error(err))
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
