// Package monitor streams live session progress to experimenter
// dashboards over WebSocket.
package monitor

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// WebSocket Constants
// -----------------------------------------------------------------------------

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	// Size of client send buffer. A full buffer drops the client.
	sendBufferSize = 512
)

// Channel names for subscriptions.
const (
	ChannelTrials = "trials"
	ChannelStatus = "status"
)

// Event types for WebSocket messages.
const (
	EventTypeSessionStart = "session_start"
	EventTypeBlockStart   = "block_start"
	EventTypeTrial        = "trial"
	EventTypeBlockEnd     = "block_end"
	EventTypeSessionEnd   = "session_end"
	EventTypeStatus       = "status"
	EventTypeSubscribe    = "subscribe"
	EventTypePing         = "ping"
	EventTypePong         = "pong"
	EventTypeError        = "error"
)

// Message is the WebSocket message envelope.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
	Channels  []string    `json:"channels,omitempty"` // For subscribe messages
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The monitor binds to the lab machine; any local page may connect.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// Client is one dashboard connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	subscriptions map[string]bool
	subMu         sync.RWMutex
}

// NewClient creates a client for conn.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		subscriptions: make(map[string]bool),
	}
}

// Subscribe adds channel subscriptions.
func (c *Client) Subscribe(channels ...string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range channels {
		c.subscriptions[ch] = true
	}
}

// IsSubscribed checks if the client is subscribed to a channel.
func (c *Client) IsSubscribed(channel string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return c.subscriptions[channel]
}

// readPump reads client messages until the connection fails.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[monitor] read error: %v", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		c.sendError("invalid_json", "Failed to parse message")
		return
	}

	switch msg.Type {
	case EventTypeSubscribe:
		c.handleSubscribe(msg)
	case EventTypePing:
		c.queue(&Message{Type: EventTypePong, Timestamp: now()})
	default:
		log.Printf("[monitor] unknown message type: %s", msg.Type)
	}
}

func (c *Client) handleSubscribe(msg Message) {
	if len(msg.Channels) == 0 {
		c.sendError("invalid_subscribe", "No channels specified")
		return
	}

	valid := make([]string, 0, len(msg.Channels))
	for _, ch := range msg.Channels {
		switch ch {
		case ChannelTrials, ChannelStatus:
			valid = append(valid, ch)
		default:
			log.Printf("[monitor] unknown channel: %s", ch)
		}
	}
	if len(valid) == 0 {
		c.sendError("invalid_subscribe", "No known channels")
		return
	}
	c.Subscribe(valid...)
	log.Printf("[monitor] client subscribed to: %v", valid)

	// a late subscriber gets the current state at once
	if c.IsSubscribed(ChannelStatus) {
		c.queue(&Message{Type: EventTypeStatus, Data: c.hub.Status(), Timestamp: now()})
	}
}

func (c *Client) sendError(code, message string) {
	c.queue(&Message{
		Type:      EventTypeError,
		Data:      map[string]string{"code": code, "message": message},
		Timestamp: now(),
	})
}

// queue sends msg to this client only. The hub closes send under its
// lock, so membership is checked under the same lock.
func (c *Client) queue(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump writes queued messages and pings until send is closed.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// -----------------------------------------------------------------------------
// Hub
// -----------------------------------------------------------------------------

// Hub tracks connected dashboards and the latest session status.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	statusMu sync.RWMutex
	status   Status

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		status:     Status{Phase: PhaseIdle},
		done:       make(chan struct{}),
	}
}

// Run handles client registration until Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("[monitor] client connected (total: %d)", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("[monitor] client disconnected (total: %d)", h.ClientCount())
		}
	}
}

// Stop stops Run and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriberCount returns the number of clients subscribed to channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.IsSubscribed(channel) {
			n++
		}
	}
	return n
}

// BroadcastToChannel sends msg to the clients subscribed to channel.
// Clients whose buffer is full are dropped.
func (h *Hub) BroadcastToChannel(channel string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !client.IsSubscribed(channel) {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
	return nil
}

// Status returns a copy of the latest session status.
func (h *Hub) Status() Status {
	h.statusMu.RLock()
	defer h.statusMu.RUnlock()
	return h.status
}

func (h *Hub) updateStatus(fn func(*Status)) Status {
	h.statusMu.Lock()
	defer h.statusMu.Unlock()
	fn(&h.status)
	h.status.UpdatedAt = now()
	return h.status
}

// -----------------------------------------------------------------------------
// HTTP Handler
// -----------------------------------------------------------------------------

// ServeWS upgrades the request and registers a client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[monitor] upgrade error: %v", err)
		return
	}

	client := NewClient(h, conn)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
