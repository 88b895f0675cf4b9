package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/auth"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/events"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, topic string) *Client {
	return &Client{
		hub:   hub,
		topic: topic,
		send:  make(chan []byte, 256),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, TopicOrders)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[TopicOrders] == nil {
		t.Fatal("topic room not created")
	}
	if !hub.rooms[TopicOrders][client] {
		t.Fatal("client not registered in topic room")
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := startHub(t)
	client1 := mockClient(hub, TopicOrders)
	client2 := mockClient(hub, TopicOrders)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[TopicOrders]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms[TopicOrders]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms[TopicOrders] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
}

func TestPublishRoutesByEventType(t *testing.T) {
	hub := startHub(t)
	ordersClient := mockClient(hub, TopicOrders)
	inventoryClient := mockClient(hub, TopicInventory)

	hub.register <- ordersClient
	hub.register <- inventoryClient
	time.Sleep(10 * time.Millisecond)

	payload := map[string]any{"orderNumber": 1001}
	if err := hub.Publish(context.Background(), events.New(events.TypeOrderPlaced, payload)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-ordersClient.send:
		var received struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != events.TypeOrderPlaced {
			t.Errorf("expected type %q, got %q", events.TypeOrderPlaced, received.Type)
		}
		if received.Payload["orderNumber"] != float64(1001) {
			t.Errorf("unexpected payload: %v", received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("orders client did not receive message")
	}

	select {
	case <-inventoryClient.send:
		t.Fatal("inventory client should not receive order events")
	case <-time.After(50 * time.Millisecond):
	}

	if err := hub.Publish(context.Background(), events.New(events.TypeInventoryLowStock, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-inventoryClient.send:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("inventory client did not receive low stock event")
	}
}

func TestBroadcastToMultipleClients(t *testing.T) {
	hub := startHub(t)
	clients := []*Client{
		mockClient(hub, TopicOrders),
		mockClient(hub, TopicOrders),
		mockClient(hub, TopicOrders),
	}
	for _, c := range clients {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	if err := hub.Publish(context.Background(), events.New(events.TypeOrderStatusChanged, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for i, client := range clients {
		select {
		case <-client.send:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestRunClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := mockClient(hub, TopicOrders)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after cancel")
	}

	if _, ok := <-client.send; ok {
		t.Fatal("expected client send channel to be closed")
	}
}

func TestHandlerRejectsMissingOrForeignTokens(t *testing.T) {
	hub := NewHub()
	viewer, _ := auth.GenerateToken("secret", "someone", "viewer", time.Hour)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"bad token", "?token=garbage", http.StatusUnauthorized},
		{"non-admin", "?token=" + viewer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Handler(hub, "secret", TopicOrders)(rr, httptest.NewRequest("GET", "/ws/orders"+tt.query, nil))
			if rr.Code != tt.want {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
