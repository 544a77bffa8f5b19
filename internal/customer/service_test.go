package customer

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mbd888/codtrack/internal/blacklist"
	"github.com/mbd888/codtrack/internal/orders"
)

func seedStores(t *testing.T) (*orders.MemoryStore, *blacklist.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	orderStore := orders.NewMemoryStore()
	blacklistStore := blacklist.NewMemoryStore()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []*orders.Order{
		codOrder("0900000001", orders.StatusPaid, 500_000, base, score(40)),
		codOrder("0900000001", orders.StatusCompleted, 300_000, base.Add(day), score(40)),
		codOrder("0900000002", orders.StatusCustomerCancelled, 200_000, base, score(60)),
	}
	for _, o := range seed {
		if err := orderStore.Create(ctx, o); err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}
	return orderStore, blacklistStore
}

func TestServiceProfile(t *testing.T) {
	orderStore, blacklistStore := seedStores(t)
	svc := NewService(orderStore, blacklistStore)

	p, err := svc.Profile(context.Background(), "mer_1", "0900000001")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p == nil {
		t.Fatal("Profile returned nil for a known phone")
	}
	if p.TotalOrders != 2 || p.SuccessOrders != 2 {
		t.Errorf("counts = %d total / %d success, want 2/2", p.TotalOrders, p.SuccessOrders)
	}
	// Baseline 40, two successes at −5 each.
	if p.Score != 30 {
		t.Errorf("Score = %d, want 30", p.Score)
	}
}

func TestServiceProfileUnknownPhone(t *testing.T) {
	orderStore, blacklistStore := seedStores(t)
	svc := NewService(orderStore, blacklistStore)

	p, err := svc.Profile(context.Background(), "mer_1", "0999999999")
	if err != nil {
		t.Fatalf("Profile should not error for an unknown phone: %v", err)
	}
	if p != nil {
		t.Errorf("Profile = %+v, want nil for unknown phone", p)
	}
}

func TestServiceProfileUsesBlacklist(t *testing.T) {
	orderStore, blacklistStore := seedStores(t)
	ctx := context.Background()

	// Listed before the boom order: the +20 is doubled.
	err := blacklistStore.Add(ctx, &blacklist.Entry{
		MerchantID: "mer_1",
		Phone:      "0900000002",
		CreatedAt:  time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed blacklist: %v", err)
	}

	svc := NewService(orderStore, blacklistStore)
	p, err := svc.Profile(ctx, "mer_1", "0900000002")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Score != 100 {
		t.Errorf("Score = %d, want 100 (baseline 60 + 40)", p.Score)
	}
}

type staticMerchants []string

func (m staticMerchants) ListIDs(ctx context.Context) ([]string, error) { return m, nil }

func TestWorkerSnapshots(t *testing.T) {
	orderStore, blacklistStore := seedStores(t)
	svc := NewService(orderStore, blacklistStore)
	snapStore := NewMemorySnapshotStore()

	w := NewWorker(svc, staticMerchants{"mer_1"}, snapStore, time.Hour, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// The worker snapshots once immediately on start.
	deadline := time.Now().Add(time.Second)
	var snaps []*Snapshot
	for time.Now().Before(deadline) {
		var err error
		snaps, err = snapStore.Query(ctx, HistoryQuery{MerchantID: "mer_1", Phone: "0900000001"})
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(snaps) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if len(snaps) == 0 {
		t.Fatal("worker never produced a snapshot")
	}
	if snaps[0].Score != 30 {
		t.Errorf("snapshot Score = %d, want 30", snaps[0].Score)
	}
}
