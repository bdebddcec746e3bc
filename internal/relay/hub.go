package relay

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/charlapp/charla/internal/models"
)

// Hub maintains the set of connected clients and fans every accepted
// message event out to all of them, including the original sender.
// It holds no history: an event not deliverable right now is lost.
type Hub struct {
	// clients is the flat set of open connections
	clients map[*Client]bool

	// register requests from clients
	register chan *Client

	// unregister requests from clients
	unregister chan *Client

	// broadcast carries raw inbound frames to fan out
	broadcast chan *inboundFrame

	// mutex for thread-safe client set operations
	mu sync.RWMutex
}

// inboundFrame is a raw frame received from one client, pending fan-out.
type inboundFrame struct {
	Data   []byte
	Sender *Client
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *inboundFrame),
	}
}

// Run starts the hub's main event loop.
// This should be called in a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case frame := <-h.broadcast:
			h.broadcastFrame(frame)
		}
	}
}

// registerClient adds a client to the connected set.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	log.Printf("[Relay] Client %s connected (total: %d)", client.SessionID, len(h.clients))
}

// unregisterClient removes a client from the connected set.
// Disconnects are silent: no retry, no backlog for the departed client.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client]; exists {
		delete(h.clients, client)
		close(client.send)
		log.Printf("[Relay] Client %s disconnected (remaining: %d)", client.SessionID, len(h.clients))
	}
}

// broadcastFrame validates an inbound frame and pushes it to every
// connected client. The relay is content-agnostic beyond the minimal
// shape check: it never routes by contact.
func (h *Hub) broadcastFrame(frame *inboundFrame) {
	var event models.Event
	if err := json.Unmarshal(frame.Data, &event); err != nil {
		log.Printf("[Relay] Discarding unparseable event from %s: %v", frame.Sender.SessionID, err)
		return
	}
	if err := event.Validate(); err != nil {
		log.Printf("[Relay] Discarding malformed event from %s: %v", frame.Sender.SessionID, err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	// The sender receives its own message back; its session dedups by id.
	for _, client := range clients {
		select {
		case client.send <- frame.Data:
		default:
			// Client's buffer is full, drop them rather than stall the fan-out
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("[Relay] Dropped slow client %s", client.SessionID)
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
