package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"iris-server/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

// Client is one live connection. rooms is guarded by the hub lock; closed
// and send by mu.
type Client struct {
	sid       string
	namespace string
	user      *models.User
	conn      *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool

	rooms map[string]struct{}
}

func newClient(sid, namespace string, user *models.User, conn *websocket.Conn) *Client {
	return &Client{
		sid:       sid,
		namespace: namespace,
		user:      user,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		rooms:     make(map[string]struct{}),
	}
}

func (c *Client) SID() string { return c.sid }

// deliver queues a frame without blocking. It fails when the connection is
// gone or its buffer is full.
func (c *Client) deliver(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("sid", c.sid).Msg("Relay connection closed unexpectedly")
			}
			return
		}
		var ev models.RelayEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Event == "" {
			log.Debug().Str("sid", c.sid).Msg("Ignoring malformed relay frame")
			continue
		}
		hub.Dispatch(context.Background(), c, ev)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
