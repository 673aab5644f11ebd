package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrConnectionClosed = errors.New("ws: connection closed")
	ErrSendBufferFull   = errors.New("ws: send buffer full")
)

// Connection serialises writes through a buffered queue drained by
// writePump; SendMessage never blocks.
type Connection struct {
	socket *websocket.Conn
	send   chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

var _ Connectioner = (*Connection)(nil)

func newConnection(socket *websocket.Conn) *Connection {
	return &Connection{
		socket: socket,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
}

func (c *Connection) SendMessage(message []byte) error {
	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- message:
		return nil
	case <-c.closed:
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.socket.Close()
	})
	return err
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case message := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}
