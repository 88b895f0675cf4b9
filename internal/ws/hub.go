package ws

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/events"
)

// Topics a client can subscribe to. Events are routed by the prefix of their
// type ("order.placed" goes to TopicOrders).
const (
	TopicOrders    = "orders"
	TopicInventory = "inventory"
)

// topicEvent is an internal struct for routing events to a topic room
type topicEvent struct {
	topic   string
	message []byte
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by topic
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *topicEvent

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *topicEvent, 256),
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.topic] == nil {
				h.rooms[client.topic] = make(map[*Client]bool)
			}
			h.rooms[client.topic][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[event.topic] {
				select {
				case client.send <- event.message:
				default:
					// Client's send buffer is full, drop it
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.topic]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.topic)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.remove(client)
		}
	}
}

// Publish implements events.Publisher. The event is marshalled once and
// queued for every client of its topic; it never blocks on slow clients.
func (h *Hub) Publish(ctx context.Context, e events.Event) error {
	message, err := json.Marshal(e)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &topicEvent{topic: topicFor(e.Type), message: message}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func topicFor(eventType string) string {
	if strings.HasPrefix(eventType, "inventory.") {
		return TopicInventory
	}
	return TopicOrders
}
