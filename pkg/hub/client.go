package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Client pumps hub messages into one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	sub  *Subscriber
}

// NewClient subscribes conn to the hub.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{hub: h, conn: conn, sub: h.Subscribe()}
}

// Run writes initial, then blocks until the connection closes or the hub
// stops.
func (c *Client) Run(initial ...Message) {
	if c.sub == nil {
		c.conn.Close()
		return
	}
	for _, m := range initial {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, m.Data); err != nil {
			c.hub.Unsubscribe(c.sub)
			c.conn.Close()
			return
		}
	}
	go c.writePump()
	c.readPump()
}

// readPump only detects disconnects and handles pongs; inbound frames are
// discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unsubscribe(c.sub)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer after Run starts it.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sub.Messages():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
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
