package risk

import (
	"context"
	"time"

	"github.com/mbd888/codtrack/internal/idgen"
	"github.com/mbd888/codtrack/internal/orders"
	"github.com/mbd888/codtrack/internal/traces"
)

// Scoring policy. These are rule weights, not a statistical model: the intent
// is deterministic, auditable scoring, and the exact numbers are a tuning
// decision.
const (
	baseCODScore = 20 // every COD order starts here
	prepaidScore = 5  // prepaid orders carry no collection risk

	// Amount tiers: larger COD orders are refused more often.
	amountTier1          = 500_000
	amountTier2          = 1_000_000
	amountTier3          = 2_000_000
	amountTier1Weight    = 10
	amountTier2Weight    = 15
	amountTier3Weight    = 25
	repeatOffenderWeight = 20 // per past boom, capped
	repeatOffenderCap    = 40
	successCredit        = 5 // per past success, capped
	successCreditCap     = 15
	unreachableWeight    = 15
	firstOrderWeight     = 10
)

// Engine scores orders at ingestion time.
type Engine struct {
	store Store
}

// NewEngine creates a scoring engine backed by the given audit store.
// A nil store disables the audit trail.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Score evaluates one order and returns its assessment. Pure with respect to
// its input: same ScoreInput, same score.
func (e *Engine) Score(ctx context.Context, merchantID, orderID string, in ScoreInput) *Assessment {
	_, span := traces.StartSpan(ctx, "risk.score",
		traces.MerchantID(merchantID),
		traces.OrderID(orderID),
		traces.Phone(in.Phone),
		traces.Amount(in.Amount),
	)
	defer span.End()

	factors := map[string]int{
		"base":            baseCODScore,
		"amount":          amountFactor(in.Amount),
		"repeat_offender": repeatOffenderFactor(in.PastBooms),
		"success_credit":  -successCreditFactor(in.PastSuccesses),
		"unreachable":     unreachableFactor(in),
		"first_order":     firstOrderFactor(in),
	}

	score := 0
	if isPrepaid(in.PaymentMethod) {
		// Prepaid: the courier collects nothing, so refusal risk is moot.
		factors = map[string]int{"prepaid": prepaidScore}
		score = prepaidScore
	} else {
		for _, v := range factors {
			score += v
		}
	}

	score = clamp(score, 0, 100)
	span.SetAttributes(traces.RiskScore(score))

	a := &Assessment{
		ID:          idgen.WithPrefix("risk_"),
		OrderID:     orderID,
		MerchantID:  merchantID,
		Phone:       in.Phone,
		Score:       score,
		Level:       orders.LevelForScore(&score),
		Factors:     factors,
		EvaluatedAt: time.Now(),
	}

	// Persist asynchronously (best-effort audit trail).
	if e.store != nil {
		go func() {
			_ = e.store.Record(context.Background(), a)
		}()
	}

	return a
}

func isPrepaid(method string) bool {
	o := orders.Order{PaymentMethod: method}
	return !orders.IsCOD(&o)
}

func amountFactor(amount int64) int {
	switch {
	case amount >= amountTier3:
		return amountTier3Weight
	case amount >= amountTier2:
		return amountTier2Weight
	case amount >= amountTier1:
		return amountTier1Weight
	default:
		return 0
	}
}

func repeatOffenderFactor(pastBooms int) int {
	w := pastBooms * repeatOffenderWeight
	if w > repeatOffenderCap {
		return repeatOffenderCap
	}
	return w
}

func successCreditFactor(pastSuccesses int) int {
	w := pastSuccesses * successCredit
	if w > successCreditCap {
		return successCreditCap
	}
	return w
}

func unreachableFactor(in ScoreInput) int {
	if in.Reachable {
		return 0
	}
	return unreachableWeight
}

func firstOrderFactor(in ScoreInput) int {
	if in.PastSuccesses == 0 && in.PastBooms == 0 {
		return firstOrderWeight
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
