package analytics

import (
	"sort"
	"time"

	"github.com/mbd888/codtrack/internal/orders"
)

// RiskBucket aggregates COD orders within one risk score band.
type RiskBucket struct {
	Label    string  `json:"label"` // "0-30", "31-70", "71-100", "unscored"
	Orders   int     `json:"orders"`
	Success  int     `json:"success"`
	Booms    int     `json:"booms"`
	BoomRate float64 `json:"boomRate"`
}

// ComputeRiskBuckets groups COD orders by risk band. All four buckets appear
// even when empty, so the calibration chart always has the same shape: if the
// scorer works, boom rate should climb from the low band to the high band.
func ComputeRiskBuckets(all []*orders.Order) []RiskBucket {
	buckets := []RiskBucket{
		{Label: "0-30"},
		{Label: "31-70"},
		{Label: "71-100"},
		{Label: "unscored"},
	}
	index := map[orders.RiskLevel]int{
		orders.RiskLevelLow:    0,
		orders.RiskLevelMedium: 1,
		orders.RiskLevelHigh:   2,
		orders.RiskLevelNone:   3,
	}

	for _, o := range all {
		if !orders.IsCOD(o) {
			continue
		}
		b := &buckets[index[o.RiskLevel()]]
		b.Orders++
		if orders.IsSuccess(o) {
			b.Success++
		}
		if orders.IsBoom(o) {
			b.Booms++
		}
	}
	for i := range buckets {
		buckets[i].BoomRate = rate(buckets[i].Booms, buckets[i].Orders)
	}
	return buckets
}

// offenderMinHighRisk is how many high-risk COD orders a phone needs before it
// appears on the repeat-offender list.
const offenderMinHighRisk = 2

// maxOffenders caps the repeat-offender list.
const maxOffenders = 10

// RepeatOffender is a phone that keeps placing high-risk COD orders.
type RepeatOffender struct {
	Phone          string `json:"phone"`
	CustomerName   string `json:"customerName,omitempty"`
	HighRiskOrders int    `json:"highRiskOrders"`
	Booms          int    `json:"booms"`
}

// ComputeRepeatOffenders lists phones with at least two high-risk COD orders,
// worst first, capped at ten entries. Phoneless orders are ignored.
func ComputeRepeatOffenders(all []*orders.Order) []RepeatOffender {
	byPhone := make(map[string]*RepeatOffender)
	for _, o := range all {
		if o.Phone == "" || !orders.IsCOD(o) {
			continue
		}
		if o.RiskLevel() != orders.RiskLevelHigh {
			continue
		}
		off, ok := byPhone[o.Phone]
		if !ok {
			off = &RepeatOffender{Phone: o.Phone}
			byPhone[o.Phone] = off
		}
		off.HighRiskOrders++
		if orders.IsBoom(o) {
			off.Booms++
		}
		if o.CustomerName != "" {
			off.CustomerName = o.CustomerName
		}
	}

	offenders := make([]RepeatOffender, 0, len(byPhone))
	for _, off := range byPhone {
		if off.HighRiskOrders >= offenderMinHighRisk {
			offenders = append(offenders, *off)
		}
	}
	sort.Slice(offenders, func(i, j int) bool {
		if offenders[i].HighRiskOrders != offenders[j].HighRiskOrders {
			return offenders[i].HighRiskOrders > offenders[j].HighRiskOrders
		}
		if offenders[i].Booms != offenders[j].Booms {
			return offenders[i].Booms > offenders[j].Booms
		}
		return offenders[i].Phone < offenders[j].Phone
	})
	if len(offenders) > maxOffenders {
		offenders = offenders[:maxOffenders]
	}
	return offenders
}

// Timers summarize how fast the operation moves and what is stuck.
type Timers struct {
	// AvgConfirmationMinutes is the mean time from order creation to the
	// customer's confirmation, over orders that confirmed.
	AvgConfirmationMinutes float64 `json:"avgConfirmationMinutes"`
	// AvgPaymentHours is the mean time from creation to payment.
	AvgPaymentHours float64 `json:"avgPaymentHours"`
	// PendingConfirmationOver24h counts orders still awaiting a customer
	// response more than 24h after the confirmation was sent.
	PendingConfirmationOver24h int `json:"pendingConfirmationOver24h"`
	// DeliveringOver3Days counts orders in transit for more than 72h.
	DeliveringOver3Days int `json:"deliveringOver3Days"`
}

// ComputeTimers derives operational timing metrics. now is injected so the
// stuck-order counters are testable.
func ComputeTimers(all []*orders.Order, now time.Time) Timers {
	var t Timers
	var confirmTotal time.Duration
	var confirmN int
	var payTotal time.Duration
	var payN int

	for _, o := range all {
		if o.CustomerConfirmedAt != nil && o.CustomerConfirmedAt.After(o.CreatedAt) {
			confirmTotal += o.CustomerConfirmedAt.Sub(o.CreatedAt)
			confirmN++
		}
		if o.PaidAt != nil && o.PaidAt.After(o.CreatedAt) {
			payTotal += o.PaidAt.Sub(o.CreatedAt)
			payN++
		}
		if o.Status == orders.StatusConfirmationSent {
			since := o.CreatedAt
			if o.ConfirmationSentAt != nil {
				since = *o.ConfirmationSentAt
			}
			if now.Sub(since) > 24*time.Hour {
				t.PendingConfirmationOver24h++
			}
		}
		if o.Status == orders.StatusDelivering {
			since := o.CreatedAt
			if o.ShippedAt != nil {
				since = *o.ShippedAt
			}
			if now.Sub(since) > 72*time.Hour {
				t.DeliveringOver3Days++
			}
		}
	}

	if confirmN > 0 {
		t.AvgConfirmationMinutes = round2(confirmTotal.Minutes() / float64(confirmN))
	}
	if payN > 0 {
		t.AvgPaymentHours = round2(payTotal.Hours() / float64(payN))
	}
	return t
}
