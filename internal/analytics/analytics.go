// Package analytics derives dashboard views from a merchant's order stream.
//
// Every function here is a pure transformation: it takes an order collection
// already filtered to one merchant and one date range, mutates nothing, and
// performs no I/O. Empty input yields zero-value shapes so dashboards degrade
// gracefully on a merchant with no data yet.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/mbd888/codtrack/internal/orders"
)

// Granularity of a trend series.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

// monthlyThreshold is the range span above which series bucket by month
// instead of day, keeping chart series readable for long windows.
const monthlyThreshold = 60 * 24 * time.Hour

// GranularityFor picks the bucket size for a date range.
func GranularityFor(from, to time.Time) Granularity {
	if to.Sub(from) > monthlyThreshold {
		return GranularityMonth
	}
	return GranularityDay
}

// KPIs are the headline numbers for a date range.
type KPIs struct {
	TotalOrders   int `json:"totalOrders"`
	CODOrders     int `json:"codOrders"`
	PrepaidOrders int `json:"prepaidOrders"`

	// GrossRevenue sums the amount of every order that was ever paid;
	// RealizedRevenue sums orders whose current status is a success state.
	// They differ on purpose: an order can be paid mid-delivery.
	GrossRevenue    int64 `json:"grossRevenue"`
	RealizedRevenue int64 `json:"realizedRevenue"`

	BoomRate         float64 `json:"boomRate"`         // boom COD / COD
	ConfirmationRate float64 `json:"confirmationRate"` // confirmed COD / COD
	PaidRate         float64 `json:"paidRate"`         // ever-paid / all
}

// ComputeKPIs derives the headline numbers from an order collection.
func ComputeKPIs(all []*orders.Order) KPIs {
	var k KPIs
	var codBooms, codConfirmed, paid int

	for _, o := range all {
		k.TotalOrders++
		if orders.IsCOD(o) {
			k.CODOrders++
			if orders.IsBoom(o) {
				codBooms++
			}
			if o.CustomerConfirmedAt != nil {
				codConfirmed++
			}
		} else {
			k.PrepaidOrders++
		}
		if orders.HasBeenPaid(o) {
			paid++
			k.GrossRevenue += o.Amount
		}
		if orders.IsSuccess(o) {
			k.RealizedRevenue += o.Amount
		}
	}

	k.BoomRate = rate(codBooms, k.CODOrders)
	k.ConfirmationRate = rate(codConfirmed, k.CODOrders)
	k.PaidRate = rate(paid, k.TotalOrders)
	return k
}

// TrendPoint is one time bucket of the order stream.
type TrendPoint struct {
	Bucket  string `json:"bucket"` // "2026-01-02" or "2026-01"
	Orders  int    `json:"orders"`
	Revenue int64  `json:"revenue"` // ever-paid orders
	Booms   int    `json:"booms"`
}

// ComputeTrend buckets orders across [from, to] by the range's granularity.
// Buckets with no orders are included so chart axes stay continuous.
func ComputeTrend(all []*orders.Order, from, to time.Time) []TrendPoint {
	if to.Before(from) {
		return []TrendPoint{}
	}
	gran := GranularityFor(from, to)

	layout := "2006-01-02"
	if gran == GranularityMonth {
		layout = "2006-01"
	}

	byBucket := make(map[string]*TrendPoint)
	for _, o := range all {
		key := o.BusinessDate().Format(layout)
		pt, ok := byBucket[key]
		if !ok {
			pt = &TrendPoint{Bucket: key}
			byBucket[key] = pt
		}
		pt.Orders++
		if orders.HasBeenPaid(o) {
			pt.Revenue += o.Amount
		}
		if orders.IsBoom(o) {
			pt.Booms++
		}
	}

	// Anchor month stepping to the first of the month: AddDate from day 29-31
	// normalizes past short months (Jan 31 + 1 month = Mar 3) and would skip
	// a bucket.
	start := from
	if gran == GranularityMonth {
		start = time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location())
	}

	var series []TrendPoint
	for cur := start; !cur.After(to); {
		key := cur.Format(layout)
		if pt, ok := byBucket[key]; ok {
			series = append(series, *pt)
		} else {
			series = append(series, TrendPoint{Bucket: key})
		}
		if gran == GranularityMonth {
			cur = cur.AddDate(0, 1, 0)
		} else {
			cur = cur.AddDate(0, 0, 1)
		}
	}
	if series == nil {
		series = []TrendPoint{}
	}
	return series
}

// rate divides with a zero-safe denominator, rounded to 4 decimal places.
func rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return math.Round(float64(num)/float64(den)*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortRowsByOrders(rows []BreakdownRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Orders != rows[j].Orders {
			return rows[i].Orders > rows[j].Orders
		}
		return rows[i].Key < rows[j].Key
	})
}
