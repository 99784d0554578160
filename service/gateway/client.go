package gateway

import (
	"sync"
	"time"

	"ChatWave/logger"
	"ChatWave/module/chat/model"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 25 * time.Second
)

// Client is one authenticated WebSocket connection. Exactly one user is
// attached for its whole lifetime; outbound frames go through the buffered
// send queue consumed by a single writer goroutine.
type Client struct {
	ConnID   string
	UserID   string
	Username string
	Avatar   string
	Token    string

	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient builds the connection record. ws may be nil in tests; the write
// pump is only started for real connections.
func NewClient(connID string, user *model.User, token string, ws *websocket.Conn, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Client{
		ConnID:   connID,
		UserID:   user.UserID,
		Username: user.Username,
		Avatar:   user.Avatar,
		Token:    token,
		ws:       ws,
		send:     make(chan []byte, queueSize),
		done:     make(chan struct{}),
	}
}

// Enqueue queues a payload for the writer; drops when the client is slow.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) Done() <-chan struct{} { return c.done }

// writePump is the single writer for the connection. gorilla/websocket does
// not allow concurrent writes, so every frame and ping funnels through here.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.ws.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(payload); err != nil {
				logger.Infof("[WS] write err conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Infof("[WS] ping err conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
				return
			}
		case <-c.done:
			// flush whatever is still queued, then close
			for {
				select {
				case payload := <-c.send:
					if err := c.write(payload); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (c *Client) write(payload []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}
