package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/pkg/errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// client pairs a websocket with its outbound queue. Send never blocks: a full queue or a closed
// connection is reported to the caller and the message is dropped.
type client struct {
	conn  *websocket.Conn
	queue chan []byte
	done  chan struct{}
	once  *sync.Once
}

func newClient(conn *websocket.Conn, queueSize int) *client {
	return &client{
		conn:  conn,
		queue: make(chan []byte, queueSize),
		done:  make(chan struct{}),
		once:  &sync.Once{},
	}
}

func (c *client) Send(data []byte) error {
	select {
	case <-c.done:
		return domain.ErrConnectionClosed
	default:
	}
	select {
	case c.queue <- data:
		return nil
	case <-c.done:
		return domain.ErrConnectionClosed
	default:
		return domain.ErrOutboundFull
	}
}

// ReadMessage returns the next text frame. Binary frames are skipped.
func (c *client) ReadMessage() ([]byte, error) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed() || websocket.IsCloseError(err, websocket.CloseNormalClosure,
				websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil, domain.ErrConnectionClosed
			}
			return nil, errors.WithMessage(err, "websocket conn read message")
		}
		if msgType != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

func (c *client) keepAlive() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// writePump drains the queue to the socket until the connection or ctx ends. It closes the
// connection on exit so a reader blocked in ReadMessage is released too.
func (c *client) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			c.writeClose()
			return nil
		case <-c.done:
			return nil
		case data := <-c.queue:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return errors.WithMessage(err, "websocket conn write message")
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return errors.WithMessage(err, "websocket conn write ping")
			}
		}
	}
}

func (c *client) writeClose() {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func (c *client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
