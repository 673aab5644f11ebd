// Package ws is a small channel-based websocket hub.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

type Connectioner interface {
	SendMessage(message []byte) error
	Close() error
}

type Huber interface {
	http.Handler
	JoinChannel(channel string, conn *Connection)
	LeaveChannel(channel string, conn *Connection)
	ConnectionsInChannel(channel string) []*Connection
	BroadcastToChannel(channel string, message []byte)
	ConnectionsCount() int
}

type HubOptions struct {
	Logger      *logrus.Logger
	CheckOrigin func(r *http.Request) bool
	// OnConnect runs after the upgrade; returning an error closes the socket.
	OnConnect    func(r *http.Request, hub *Hub, conn *Connection) error
	OnDisconnect func(conn *Connection)
	// OnMessage receives every text frame from the client.
	OnMessage func(conn *Connection, message []byte)
}

type Hub struct {
	opts     HubOptions
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[*Connection]struct{}
	channels    map[string]map[*Connection]struct{}
}

var _ Huber = (*Hub)(nil)

func NewHub(opts *HubOptions) *Hub {
	h := &Hub{
		opts:        *opts,
		connections: map[*Connection]struct{}{},
		channels:    map[string]map[*Connection]struct{}{},
	}
	if h.opts.Logger == nil {
		h.opts.Logger = logrus.StandardLogger()
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.opts.CheckOrigin,
	}
	return h
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.opts.Logger.WithError(err).Debug("ws: upgrade failed")
		return
	}
	conn := newConnection(socket)

	h.mu.Lock()
	h.connections[conn] = struct{}{}
	h.mu.Unlock()

	if h.opts.OnConnect != nil {
		if err := h.opts.OnConnect(r, h, conn); err != nil {
			h.opts.Logger.WithError(err).Warn("ws: connect rejected")
			h.remove(conn)
			return
		}
	}

	go conn.writePump()
	go h.readPump(conn)
}

func (h *Hub) readPump(conn *Connection) {
	defer h.remove(conn)

	conn.socket.SetReadLimit(maxMessageSize)
	_ = conn.socket.SetReadDeadline(time.Now().Add(pongWait))
	conn.socket.SetPongHandler(func(string) error {
		return conn.socket.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, message, err := conn.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.opts.Logger.WithError(err).Debug("ws: read failed")
			}
			return
		}
		if h.opts.OnMessage != nil {
			h.opts.OnMessage(conn, message)
		}
	}
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	_, ok := h.connections[conn]
	delete(h.connections, conn)
	for name, members := range h.channels {
		delete(members, conn)
		if len(members) == 0 {
			delete(h.channels, name)
		}
	}
	h.mu.Unlock()

	_ = conn.Close()
	if ok && h.opts.OnDisconnect != nil {
		h.opts.OnDisconnect(conn)
	}
}

func (h *Hub) JoinChannel(channel string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.channels[channel]
	if !ok {
		members = map[*Connection]struct{}{}
		h.channels[channel] = members
	}
	members[conn] = struct{}{}
}

func (h *Hub) LeaveChannel(channel string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(h.channels, channel)
	}
}

func (h *Hub) ConnectionsInChannel(channel string) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.channels[channel]
	out := make([]*Connection, 0, len(members))
	for conn := range members {
		out = append(out, conn)
	}
	return out
}

func (h *Hub) BroadcastToChannel(channel string, message []byte) {
	for _, conn := range h.ConnectionsInChannel(channel) {
		if err := conn.SendMessage(message); err != nil {
			h.opts.Logger.WithError(err).WithField("channel", channel).Debug("ws: dropping message")
		}
	}
}

func (h *Hub) ConnectionsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}
