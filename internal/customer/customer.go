// Package customer implements customer risk learning for Codtrack.
//
// A customer's risk is never stored as a mutable row. It is a pure function
// of the phone's full order history: a baseline taken from the orders' own
// ingestion-time scores, then a chronological replay that rewards successful
// deliveries and punishes booms. Recomputing from the log on every invocation
// costs O(orders-per-customer) and buys consistency and auditability — two
// callers replaying the same history always agree.
package customer

import (
	"math"
	"sort"
	"time"

	"github.com/mbd888/codtrack/internal/orders"
)

// Replay policy.
const (
	// NeutralBaseline is used when a phone has no scored COD orders yet.
	NeutralBaseline = 50

	successDelta    = -5
	bigSuccessDelta = -10 // larger successful orders earn more trust
	boomDelta       = 20

	// bigOrderAmount is the amount at which a success earns the larger credit.
	bigOrderAmount = 1_000_000

	// blacklistMultiplier amplifies deltas for orders placed after the phone
	// was blacklisted: trading with a known-risky customer is rewarded or
	// punished more sharply. Applied to both signs — reproduced exactly from
	// the established scoring behavior, including the amplified reward.
	blacklistMultiplier = 2
)

// Profile is a derived, point-in-time risk assessment of one customer.
type Profile struct {
	Phone         string           `json:"phone"`
	CustomerName  string           `json:"customerName,omitempty"`
	TotalOrders   int              `json:"totalOrders"`
	SuccessOrders int              `json:"successOrders"`
	FailedOrders  int              `json:"failedOrders"`
	BaseScore     int              `json:"baseScore"`
	Score         int              `json:"score"` // 0-100 after replay
	Level         orders.RiskLevel `json:"level"`
	LastOrderAt   time.Time        `json:"lastOrderAt"`
	CalculatedAt  time.Time        `json:"calculatedAt"`
}

// Calculator replays order histories into risk profiles.
type Calculator struct{}

// NewCalculator creates a risk profile calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate replays one phone's full order history. blacklistedAt is the
// phone's blacklist timestamp, nil when the phone is not listed.
// Returns nil when the history is empty.
func (c *Calculator) Calculate(phone string, history []*orders.Order, blacklistedAt *time.Time) *Profile {
	if len(history) == 0 {
		return nil
	}

	sorted := make([]*orders.Order, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BusinessDate().Before(sorted[j].BusinessDate())
	})

	base := baseline(sorted)
	current := base

	p := &Profile{
		Phone:        phone,
		BaseScore:    base,
		CalculatedAt: time.Now(),
	}

	for _, o := range sorted {
		p.TotalOrders++

		delta := 0
		switch {
		case orders.IsSuccess(o):
			p.SuccessOrders++
			delta = successDelta
			if o.Amount >= bigOrderAmount {
				delta = bigSuccessDelta
			}
		case orders.IsBoom(o):
			p.FailedOrders++
			delta = boomDelta
		}

		// The merchant chose to ship despite the blacklist: double the
		// consequence. A rejected order means they did not trade, so the
		// multiplier does not apply.
		if blacklistedAt != nil &&
			blacklistedAt.Before(o.BusinessDate()) &&
			o.Status != orders.StatusRejected {
			delta *= blacklistMultiplier
		}

		current += delta
	}

	if current < 0 {
		current = 0
	}
	if current > 100 {
		current = 100
	}
	p.Score = current
	p.Level = orders.LevelForScore(&p.Score)

	// Name and recency come from the most recent order, independent of the
	// score walk.
	last := sorted[len(sorted)-1]
	p.CustomerName = last.CustomerName
	p.LastOrderAt = last.BusinessDate()

	return p
}

// CalculateAll partitions a merchant's order set by phone and replays each
// history. Orders without a phone are ignored. blacklist maps phone to the
// blacklist entry's creation time.
func (c *Calculator) CalculateAll(all []*orders.Order, blacklist map[string]time.Time) map[string]*Profile {
	byPhone := make(map[string][]*orders.Order)
	for _, o := range all {
		if o.Phone == "" {
			continue
		}
		byPhone[o.Phone] = append(byPhone[o.Phone], o)
	}

	profiles := make(map[string]*Profile, len(byPhone))
	for phone, history := range byPhone {
		var listedAt *time.Time
		if at, ok := blacklist[phone]; ok {
			t := at
			listedAt = &t
		}
		if p := c.Calculate(phone, history, listedAt); p != nil {
			profiles[phone] = p
		}
	}
	return profiles
}

// baseline averages the ingestion-time risk scores of the phone's scored COD
// orders, falling back to the neutral default when none exist.
func baseline(history []*orders.Order) int {
	sum, n := 0, 0
	for _, o := range history {
		if orders.IsCOD(o) && o.RiskScore != nil {
			sum += *o.RiskScore
			n++
		}
	}
	if n == 0 {
		return NeutralBaseline
	}
	return int(math.Round(float64(sum) / float64(n)))
}
