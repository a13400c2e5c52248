package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, group string) *Client {
	return &Client{
		hub:   hub,
		group: group,
		send:  make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, GroupKitchen)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[GroupKitchen] == nil {
		t.Fatal("kitchen room not created")
	}
	if !hub.rooms[GroupKitchen][client] {
		t.Fatal("client not registered in kitchen room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, GroupKitchen)

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[GroupKitchen] != nil {
		t.Fatal("room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleGroup(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	kitchenClient := mockClient(hub, GroupKitchen)
	cashierClient := mockClient(hub, GroupCashier)

	// Register both clients
	hub.register <- kitchenClient
	hub.register <- cashierClient
	time.Sleep(10 * time.Millisecond)

	// Broadcast to kitchen only
	testData := json.RawMessage(`{"order_id":"test-123"}`)
	event := Event{
		Type: "NEW_ORDER",
		Data: testData,
	}
	hub.BroadcastToGroup(GroupKitchen, event)

	// Check kitchen client receives the message
	select {
	case msg := <-kitchenClient.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "NEW_ORDER" {
			t.Errorf("expected type 'NEW_ORDER', got '%s'", received.Type)
		}
		if string(received.Data) != string(testData) {
			t.Errorf("expected data '%s', got '%s'", testData, received.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("kitchen client did not receive message")
	}

	// Check cashier client does NOT receive the message
	select {
	case <-cashierClient.send:
		t.Fatal("cashier client should not have received kitchen message")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsInSameGroup(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, GroupCashier)
	client2 := mockClient(hub, GroupCashier)
	client3 := mockClient(hub, GroupCashier)

	// Register all clients to same group
	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	// Broadcast event
	testData := json.RawMessage(`{"status":"READY"}`)
	event := Event{
		Type: "ORDER_READY",
		Data: testData,
	}
	hub.BroadcastToGroup(GroupCashier, event)

	// All three clients should receive the message
	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "ORDER_READY" {
				t.Errorf("client%d: expected type 'ORDER_READY', got '%s'", i+1, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestEventSerialization(t *testing.T) {
	testCases := []struct {
		name  string
		event Event
	}{
		{
			name: "new order event",
			event: Event{
				Type: "NEW_ORDER",
				Data: json.RawMessage(`{"id":"abc","total":"25000.00"}`),
			},
		},
		{
			name: "order ready event",
			event: Event{
				Type: "ORDER_READY",
				Data: json.RawMessage(`{"line_id":"def","status":"READY"}`),
			},
		},
		{
			name: "order cancelled event",
			event: Event{
				Type: "ORDER_CANCELLED",
				Data: json.RawMessage(`{"line_id":"ghi","reason":"out of stock"}`),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.event)
			if err != nil {
				t.Fatalf("Marshal error: %v", err)
			}

			// Verify we can unmarshal back
			var decoded Event
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}

			if decoded.Type != tc.event.Type {
				t.Errorf("Type mismatch: got %s, want %s", decoded.Type, tc.event.Type)
			}
			if string(decoded.Data) != string(tc.event.Data) {
				t.Errorf("Data mismatch: got %s, want %s", decoded.Data, tc.event.Data)
			}
		})
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, GroupKitchen)
	client2 := mockClient(hub, GroupKitchen)

	// Register both clients
	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[GroupKitchen]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms[GroupKitchen]))
	}
	hub.mu.RUnlock()

	// Unregister first client
	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[GroupKitchen]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms[GroupKitchen]))
	}
	hub.mu.RUnlock()

	// Unregister second client
	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if hub.rooms[GroupKitchen] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	hub.mu.RUnlock()
}

func TestBroadcastToEmptyGroup(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, GroupKitchen)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Broadcast to cashier (no clients)
	event := Event{
		Type: "ORDER_READY",
		Data: json.RawMessage(`{"test":"data"}`),
	}
	hub.BroadcastToGroup(GroupCashier, event)

	// kitchen client should NOT receive anything
	select {
	case <-client.send:
		t.Fatal("client should not receive message for different group")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message
	}
}

func TestValidGroup(t *testing.T) {
	if !ValidGroup(GroupKitchen) || !ValidGroup(GroupCashier) {
		t.Fatal("expected kitchen and cashier to be valid groups")
	}
	if ValidGroup("bar") {
		t.Fatal("unexpected valid group")
	}
}
