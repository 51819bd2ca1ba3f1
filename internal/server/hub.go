package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/jsonflow/pkg/graph"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16

	// maxClientMessage bounds what a browser may send; clients only send
	// small action messages.
	maxClientMessage = 4096
)

// Message actions exchanged over the websocket.
const (
	ActionFrame = "frame" // server → client, carries Frame
	ActionFit   = "fit"   // server → client
	ActionReady = "ready" // client → server
	ActionStyle = "style" // client → server
)

// Message is one websocket message in either direction.
type Message struct {
	Action string       `json:"action"`
	Frame  *graph.Frame `json:"frame,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans frames out to every connected browser. It implements
// controller.Surface.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  *log.Logger
}

// NewHub creates a hub with no clients.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{clients: make(map[*client]struct{}), logger: logger}
}

// Publish sends f to every client.
func (h *Hub) Publish(_ context.Context, f graph.Frame) error {
	return h.broadcast(Message{Action: ActionFrame, Frame: &f})
}

// FitView asks every client to fit the diagram to its viewport.
func (h *Hub) FitView(context.Context) error {
	return h.broadcast(Message{Action: ActionFit})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// too slow; drop it and let the browser reconnect
			h.logger.Warn("dropping slow websocket client", "client", c.id)
			delete(h.clients, c)
			c.close()
		}
	}
	return nil
}

func (h *Hub) register(conn *websocket.Conn) *client {
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "client", c.id, "clients", n)
	return c
}

// unregister removes c and reports how many clients remain.
func (h *Hub) unregister(c *client) int {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.close()
	h.logger.Debug("websocket client disconnected", "client", c.id, "clients", n)
	return n
}

// sendTo queues one message for a single client.
func (h *Hub) sendTo(c *client, m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump drains c.send to the connection and keeps it alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
