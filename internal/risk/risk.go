// Package risk implements baseline risk scoring for incoming COD orders.
//
// Every imported order is evaluated once, at ingestion, against a fixed set
// of weighted rule factors: amount tier, repeat-offender history, messaging
// reachability, and first-order uncertainty. Scores range from 0 (safe) to
// 100 (near-certain boom). Scoring is a pure function of its inputs so that
// downstream learning and analytics remain reproducible.
package risk

import (
	"context"
	"time"

	"github.com/mbd888/codtrack/internal/orders"
)

// ScoreInput carries the data needed to score one order at import time.
// Populated from the import payload plus the phone's known history — scoring
// itself performs no lookups.
type ScoreInput struct {
	Phone         string
	Amount        int64 // integer currency units
	PaymentMethod string

	// Outcomes of the phone's past orders available at import time.
	PastSuccesses int
	PastBooms     int

	// Reachable is a proxy signal for whether the customer can be reached on
	// a messaging channel (set by the import pipeline, defaults to false).
	Reachable bool
}

// Assessment is the result of scoring a single order.
type Assessment struct {
	ID          string           `json:"id"`
	OrderID     string           `json:"orderId"`
	MerchantID  string           `json:"merchantId"`
	Phone       string           `json:"phone"`
	Score       int              `json:"score"` // 0-100
	Level       orders.RiskLevel `json:"level"`
	Factors     map[string]int   `json:"factors"`
	EvaluatedAt time.Time        `json:"evaluatedAt"`
}

// Store persists assessments for audit trail.
type Store interface {
	Record(ctx context.Context, a *Assessment) error
	ListByPhone(ctx context.Context, merchantID, phone string, limit int) ([]*Assessment, error)
}
