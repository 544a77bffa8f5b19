package risk

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/mbd888/codtrack/internal/orders"
)

func TestScoreDeterministic(t *testing.T) {
	e := NewEngine(nil)
	in := ScoreInput{
		Phone:         "0900000001",
		Amount:        1_500_000,
		PaymentMethod: "COD",
		PastBooms:     1,
	}

	a := e.Score(context.Background(), "mer_1", "ord_1", in)
	b := e.Score(context.Background(), "mer_1", "ord_1", in)

	if a.Score != b.Score {
		t.Errorf("same input produced different scores: %d vs %d", a.Score, b.Score)
	}
}

func TestScoreRange(t *testing.T) {
	e := NewEngine(nil)

	inputs := []ScoreInput{
		{},
		{Amount: 10_000_000, PastBooms: 10},
		{Amount: 100, PastSuccesses: 50, Reachable: true},
		{PaymentMethod: "bank_transfer"},
	}
	for _, in := range inputs {
		a := e.Score(context.Background(), "mer_1", "ord_1", in)
		if a.Score < 0 || a.Score > 100 {
			t.Errorf("score %d outside [0,100] for input %+v", a.Score, in)
		}
		if a.Level != orders.LevelForScore(&a.Score) {
			t.Errorf("level %s inconsistent with score %d", a.Level, a.Score)
		}
	}
}

func TestPrepaidScoresLow(t *testing.T) {
	e := NewEngine(nil)

	a := e.Score(context.Background(), "mer_1", "ord_1", ScoreInput{
		Amount:        5_000_000,
		PaymentMethod: "bank_transfer",
		PastBooms:     5,
	})

	if a.Score != prepaidScore {
		t.Errorf("prepaid order score = %d, want %d", a.Score, prepaidScore)
	}
	if a.Level != orders.RiskLevelLow {
		t.Errorf("prepaid order level = %s, want low", a.Level)
	}
}

func TestRepeatOffenderRaisesScore(t *testing.T) {
	e := NewEngine(nil)
	ctx := context.Background()

	clean := e.Score(ctx, "mer_1", "ord_1", ScoreInput{Amount: 300_000, PastSuccesses: 1})
	dirty := e.Score(ctx, "mer_1", "ord_2", ScoreInput{Amount: 300_000, PastSuccesses: 1, PastBooms: 2})

	if dirty.Score <= clean.Score {
		t.Errorf("repeat offender score %d should exceed clean history score %d", dirty.Score, clean.Score)
	}
	if dirty.Factors["repeat_offender"] != repeatOffenderCap {
		t.Errorf("two booms should hit the offender cap, got %d", dirty.Factors["repeat_offender"])
	}
}

func TestAmountTiers(t *testing.T) {
	tests := []struct {
		amount int64
		weight int
	}{
		{0, 0},
		{499_999, 0},
		{500_000, amountTier1Weight},
		{999_999, amountTier1Weight},
		{1_000_000, amountTier2Weight},
		{2_000_000, amountTier3Weight},
		{9_999_999, amountTier3Weight},
	}
	for _, tc := range tests {
		if got := amountFactor(tc.amount); got != tc.weight {
			t.Errorf("amountFactor(%d) = %d, want %d", tc.amount, got, tc.weight)
		}
	}
}

func TestFirstOrderUncertainty(t *testing.T) {
	e := NewEngine(nil)
	ctx := context.Background()

	first := e.Score(ctx, "mer_1", "ord_1", ScoreInput{Reachable: true})
	known := e.Score(ctx, "mer_1", "ord_2", ScoreInput{Reachable: true, PastSuccesses: 1})

	if first.Score <= known.Score {
		t.Errorf("first order %d should score above a customer with one success %d", first.Score, known.Score)
	}
}

func TestUnreachableRaisesScore(t *testing.T) {
	e := NewEngine(nil)
	ctx := context.Background()

	reachable := e.Score(ctx, "mer_1", "ord_1", ScoreInput{PastSuccesses: 1, Reachable: true})
	unreachable := e.Score(ctx, "mer_1", "ord_2", ScoreInput{PastSuccesses: 1})

	if unreachable.Score-reachable.Score != unreachableWeight {
		t.Errorf("unreachable delta = %d, want %d", unreachable.Score-reachable.Score, unreachableWeight)
	}
}

func TestScoreEmitsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	e := NewEngine(nil)
	a := e.Score(context.Background(), "mer_1", "ord_1", ScoreInput{
		Phone:  "0900000001",
		Amount: 700_000,
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("exported %d spans, want 1", len(spans))
	}
	if spans[0].Name != "risk.score" {
		t.Errorf("span name = %q, want risk.score", spans[0].Name)
	}
	for _, kv := range spans[0].Attributes {
		if string(kv.Key) == "risk.score" && kv.Value.AsInt64() != int64(a.Score) {
			t.Errorf("risk.score attribute = %d, want %d", kv.Value.AsInt64(), a.Score)
		}
	}
}

func TestScoreRecordsAudit(t *testing.T) {
	store := NewMemoryStore()
	e := NewEngine(store)

	a := e.Score(context.Background(), "mer_1", "ord_1", ScoreInput{Phone: "0900000001", Amount: 700_000})

	// Recording is async best-effort; poll briefly.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		listed, err := store.ListByPhone(context.Background(), "mer_1", "0900000001", 10)
		if err != nil {
			t.Fatalf("ListByPhone: %v", err)
		}
		if len(listed) == 1 {
			if listed[0].ID != a.ID || listed[0].Score != a.Score {
				t.Errorf("stored assessment %+v does not match returned %+v", listed[0], a)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("assessment was never recorded")
}
