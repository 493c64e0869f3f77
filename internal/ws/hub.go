package ws

import (
	"encoding/json"
	"sync"
	"time"
)

// Event is pushed to connected admin consoles.
type Event struct {
	Type     string    `json:"type"`
	Entity   string    `json:"entity,omitempty"`
	RecordID uint      `json:"record_id,omitempty"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Version  uint      `json:"version,omitempty"`
	ActorID  uint      `json:"actor_id,omitempty"`
	At       time.Time `json:"at"`
}

const EventStatusChanged = "status_changed"

// Client represents a single WebSocket connection with user context.
type Client struct {
	UserID        uint
	Email         string
	EmailVerified bool
	// Expires is when the token the feed was opened with runs out. Zero never expires.
	Expires time.Time
	Send    chan []byte
	hub     *Hub
	mu      sync.Mutex
	closed  bool
}

func NewClient(userID uint, email string, verified bool) *Client {
	return &Client{UserID: userID, Email: email, EmailVerified: verified, Send: make(chan []byte, 256)}
}

func (c *Client) expired(now time.Time) bool {
	return !c.Expires.IsZero() && now.After(c.Expires)
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.hub != nil {
		c.hub.unregister(c)
	}
	close(c.Send)
}

// Hub maintains the set of active clients and broadcasts to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// userID -> clients (one admin can have several consoles open)
	byUser map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		byUser:  make(map[uint]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	h.clients[c] = struct{}{}
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
}

// Broadcast sends payload to every client. Slow clients drop the message.
func (h *Hub) Broadcast(payload interface{}) {
	if h == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// Disconnect closes every feed held by userID and reports how many were closed.
func (h *Hub) Disconnect(userID uint) int {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.byUser[userID]))
	for c := range h.byUser[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.Close()
	}
	return len(clients)
}

// Revalidate disconnects every user holding a feed that keep rejects and returns their ids.
func (h *Hub) Revalidate(keep func(*Client) bool) []uint {
	h.mu.RLock()
	var revoked []uint
	seen := make(map[uint]bool)
	for c := range h.clients {
		if seen[c.UserID] {
			continue
		}
		if !keep(c) {
			seen[c.UserID] = true
			revoked = append(revoked, c.UserID)
		}
	}
	h.mu.RUnlock()
	for _, id := range revoked {
		h.Disconnect(id)
	}
	return revoked
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
