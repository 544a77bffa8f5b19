package realtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mbd888/codtrack/internal/orders"
)

func testHub() *Hub {
	return NewHub(slog.Default())
}

// ---------------------------------------------------------------------------
// shouldSend tests
// ---------------------------------------------------------------------------

func TestShouldSend_AllEvents(t *testing.T) {
	client := &Client{sub: Subscription{AllEvents: true}}

	event := &Event{Type: EventOrderCreated, Timestamp: time.Now()}
	if !shouldSend(client, event) {
		t.Error("AllEvents client should receive all events")
	}
}

func TestShouldSend_EventTypeFilter(t *testing.T) {
	client := &Client{sub: Subscription{
		EventTypes: []EventType{EventHighRiskFlagged, EventBlacklistUpdated},
	}}

	highRisk := &Event{Type: EventHighRiskFlagged}
	blacklist := &Event{Type: EventBlacklistUpdated}
	created := &Event{Type: EventOrderCreated}

	if !shouldSend(client, highRisk) {
		t.Error("Should receive high_risk_flagged events")
	}
	if !shouldSend(client, blacklist) {
		t.Error("Should receive blacklist_updated events")
	}
	if shouldSend(client, created) {
		t.Error("Should NOT receive order_created events")
	}
}

func TestShouldSend_MerchantFilter(t *testing.T) {
	client := &Client{sub: Subscription{
		MerchantIDs: []string{"mer_1"},
	}}

	if !shouldSend(client, &Event{Type: EventOrderCreated, MerchantID: "mer_1"}) {
		t.Error("Should match on merchant ID")
	}
	if shouldSend(client, &Event{Type: EventOrderCreated, MerchantID: "mer_2"}) {
		t.Error("Should NOT match other merchants")
	}
}

func TestShouldSend_ProvinceFilter(t *testing.T) {
	client := &Client{sub: Subscription{
		Provinces: []string{"Hanoi"},
	}}

	if !shouldSend(client, &Event{Type: EventOrderCreated, Province: "Hanoi"}) {
		t.Error("Should match on province")
	}
	if shouldSend(client, &Event{Type: EventOrderCreated, Province: "Danang"}) {
		t.Error("Should NOT match other provinces")
	}
	// Blacklist events carry no province; the filter must not swallow them.
	if !shouldSend(client, &Event{Type: EventBlacklistUpdated}) {
		t.Error("Province filter should only apply to events that carry one")
	}
}

func TestShouldSend_MinAmountFilter(t *testing.T) {
	client := &Client{sub: Subscription{
		MinAmount: 1_000_000,
	}}

	if !shouldSend(client, &Event{Type: EventOrderCreated, Amount: 1_500_000}) {
		t.Error("Should receive large order")
	}
	if shouldSend(client, &Event{Type: EventOrderCreated, Amount: 500_000}) {
		t.Error("Should NOT receive small order")
	}
	if !shouldSend(client, &Event{Type: EventBlacklistUpdated}) {
		t.Error("MinAmount filter should only apply to events carrying an amount")
	}
}

func TestShouldSend_EmptySubscription(t *testing.T) {
	// No filters, not AllEvents
	client := &Client{sub: Subscription{}}

	event := &Event{Type: EventOrderCreated}
	if !shouldSend(client, event) {
		t.Error("Empty subscription (no filters) should receive events")
	}
}

// ---------------------------------------------------------------------------
// Hub lifecycle tests
// ---------------------------------------------------------------------------

func TestHub_Stats_Initial(t *testing.T) {
	h := testHub()

	stats := h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients, got %v", stats["connectedClients"])
	}
	if stats["totalEvents"].(int64) != 0 {
		t.Errorf("Expected 0 total events, got %v", stats["totalEvents"])
	}
}

func TestHub_BroadcastAndStats(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	h.OrderCreated(&orders.Order{ID: "ord_1", MerchantID: "mer_1", Amount: 100})
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["totalEvents"].(int64) != 1 {
		t.Errorf("Expected 1 total event, got %v", stats["totalEvents"])
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{AllEvents: true},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["connectedClients"].(int) != 1 {
		t.Errorf("Expected 1 connected client, got %v", stats["connectedClients"])
	}
	if stats["peakClients"].(int64) != 1 {
		t.Errorf("Expected peak 1, got %v", stats["peakClients"])
	}

	h.unregister <- client
	time.Sleep(50 * time.Millisecond)

	stats = h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients after unregister, got %v", stats["connectedClients"])
	}
	// Peak should still be 1
	if stats["peakClients"].(int64) != 1 {
		t.Errorf("Expected peak still 1, got %v", stats["peakClients"])
	}
}

func TestHub_BroadcastToClient(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{AllEvents: true},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	h.StatusChanged(&orders.Order{
		ID: "ord_1", MerchantID: "mer_1", Status: orders.StatusApproved,
	}, orders.StatusPendingReview)

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for broadcast")
	}
}

func TestHub_ContextCancellation(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// Hub stopped
	case <-time.After(2 * time.Second):
		t.Error("Hub did not stop after context cancellation")
	}
}

func TestHub_FilteredBroadcast(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Client only wants high-risk flags
	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{EventTypes: []EventType{EventHighRiskFlagged}},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	// An order creation should be filtered out
	h.OrderCreated(&orders.Order{ID: "ord_1", MerchantID: "mer_1"})
	time.Sleep(100 * time.Millisecond)

	select {
	case <-client.send:
		t.Error("Client should NOT receive order_created event")
	default:
		// Good - filtered out
	}

	// A high-risk flag should come through
	h.HighRiskFlagged(&orders.Order{ID: "ord_2", MerchantID: "mer_1"})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Client should receive high_risk_flagged event")
	}
}
