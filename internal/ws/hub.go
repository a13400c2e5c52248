package ws

import (
	"encoding/json"
	"sync"
)

// Notification groups.
const (
	GroupKitchen = "kitchen"
	GroupCashier = "cashier"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// groupEvent is an internal struct for routing events to a specific group
type groupEvent struct {
	Group string
	Event Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by group name
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *groupEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *groupEvent, 256),
	}
}

// ValidGroup reports whether the group name is one the hub serves.
func ValidGroup(group string) bool {
	return group == GroupKitchen || group == GroupCashier
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.group] == nil {
				h.rooms[client.group] = make(map[*Client]bool)
			}
			h.rooms[client.group][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.group]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					// Clean up empty rooms
					if len(clients) == 0 {
						delete(h.rooms, client.group)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Group]

			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			// Send to all clients in this group's room
			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.Group], client)
					if len(h.rooms[event.Group]) == 0 {
						delete(h.rooms, event.Group)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToGroup sends an event to all clients subscribed to a group.
// Fire-and-forget: delivery is best effort and never blocks business logic.
func (h *Hub) BroadcastToGroup(group string, event Event) {
	h.broadcast <- &groupEvent{
		Group: group,
		Event: event,
	}
}
