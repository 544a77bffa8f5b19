package orders_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mbd888/codtrack/internal/orders"
	"github.com/mbd888/codtrack/internal/testutil"
)

// Integration tests against a real PostgreSQL instance.
// Skipped unless POSTGRES_URL is set.

func pgOrder(id string, status orders.Status, created time.Time) *orders.Order {
	return &orders.Order{
		ID:            id,
		MerchantID:    "mer_pg",
		Code:          "CODE-" + id,
		Phone:         "0900000001",
		Amount:        150_000,
		PaymentMethod: "COD",
		Status:        status,
		Province:      "Hanoi",
		CreatedAt:     created,
		OrderDate:     created,
	}
}

func TestPostgresCreateGet(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := orders.NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	o := pgOrder("ord_pg1", orders.StatusPendingReview, now)
	score := 45
	o.RiskScore = &score
	if err := store.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, "mer_pg", "ord_pg1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Code != "CODE-ord_pg1" || got.Amount != 150_000 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.RiskScore == nil || *got.RiskScore != 45 {
		t.Errorf("RiskScore = %v, want 45", got.RiskScore)
	}

	// Merchant scoping
	if _, err := store.Get(ctx, "mer_other", "ord_pg1"); !errors.Is(err, orders.ErrNotFound) {
		t.Errorf("cross-merchant Get error = %v, want ErrNotFound", err)
	}
}

func TestPostgresUpdateStatusCAS(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := orders.NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	if err := store.Create(ctx, pgOrder("ord_pg2", orders.StatusPendingReview, now)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	upd := orders.StatusUpdate{To: orders.StatusApproved, At: now}
	got, err := store.UpdateStatus(ctx, "mer_pg", "ord_pg2", orders.StatusPendingReview, upd)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != orders.StatusApproved {
		t.Errorf("Status = %s, want APPROVED", got.Status)
	}

	// Stale expectation must conflict, not silently overwrite.
	_, err = store.UpdateStatus(ctx, "mer_pg", "ord_pg2", orders.StatusPendingReview, upd)
	if !errors.Is(err, orders.ErrStatusConflict) {
		t.Errorf("stale UpdateStatus error = %v, want ErrStatusConflict", err)
	}
}

func TestPostgresListRangeAndPhones(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := orders.NewPostgresStore(db)
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"ord_r1", "ord_r2", "ord_r3"} {
		o := pgOrder(id, orders.StatusApproved, day.AddDate(0, 0, i))
		if err := store.Create(ctx, o); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	got, err := store.ListRange(ctx, "mer_pg", day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListRange returned %d orders, want 2", len(got))
	}

	phones, err := store.ListPhones(ctx, "mer_pg")
	if err != nil {
		t.Fatalf("ListPhones: %v", err)
	}
	if len(phones) != 1 || phones[0] != "0900000001" {
		t.Errorf("ListPhones = %v, want [0900000001]", phones)
	}
}
