package analytics

import (
	"sort"

	"github.com/mbd888/codtrack/internal/orders"
)

// Dimension selects which order attribute a breakdown groups by.
type Dimension string

const (
	DimensionProvince Dimension = "province"
	DimensionDistrict Dimension = "district"
	DimensionProduct  Dimension = "product"
	DimensionChannel  Dimension = "channel"
	DimensionSource   Dimension = "source"
)

// ValidDimension reports whether d is a supported breakdown dimension.
func ValidDimension(d Dimension) bool {
	switch d {
	case DimensionProvince, DimensionDistrict, DimensionProduct, DimensionChannel, DimensionSource:
		return true
	}
	return false
}

// leaderboardMinCOD is the minimum COD sample size for a group to appear on a
// boom-rate leaderboard. A province with 2 orders and 1 boom would otherwise
// top every chart.
const leaderboardMinCOD = 10

// BreakdownRow aggregates one group of a dimensional breakdown.
type BreakdownRow struct {
	Key       string  `json:"key"`
	Orders    int     `json:"orders"`
	CODOrders int     `json:"codOrders"`
	Revenue   int64   `json:"revenue"` // ever-paid orders
	Booms     int     `json:"booms"`
	BoomRate  float64 `json:"boomRate"` // booms / COD orders
}

// ComputeBreakdown groups orders by the given dimension. Orders with an empty
// value for the dimension fall into the "unknown" group. Rows come back sorted
// by order count descending.
func ComputeBreakdown(all []*orders.Order, dim Dimension) []BreakdownRow {
	byKey := make(map[string]*BreakdownRow)
	for _, o := range all {
		key := dimensionKey(o, dim)
		if key == "" {
			key = "unknown"
		}
		row, ok := byKey[key]
		if !ok {
			row = &BreakdownRow{Key: key}
			byKey[key] = row
		}
		row.Orders++
		if orders.HasBeenPaid(o) {
			row.Revenue += o.Amount
		}
		if orders.IsCOD(o) {
			row.CODOrders++
			if orders.IsBoom(o) {
				row.Booms++
			}
		}
	}

	rows := make([]BreakdownRow, 0, len(byKey))
	for _, row := range byKey {
		row.BoomRate = rate(row.Booms, row.CODOrders)
		rows = append(rows, *row)
	}
	sortRowsByOrders(rows)
	return rows
}

// HighestBoomRate ranks breakdown rows by boom rate, descending, keeping only
// groups with at least leaderboardMinCOD COD orders. limit caps the result;
// limit <= 0 means no cap.
func HighestBoomRate(rows []BreakdownRow, limit int) []BreakdownRow {
	eligible := make([]BreakdownRow, 0, len(rows))
	for _, row := range rows {
		if row.CODOrders >= leaderboardMinCOD {
			eligible = append(eligible, row)
		}
	}
	sortRowsByBoomRate(eligible)
	if limit > 0 && len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible
}

func sortRowsByBoomRate(rows []BreakdownRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BoomRate != rows[j].BoomRate {
			return rows[i].BoomRate > rows[j].BoomRate
		}
		if rows[i].CODOrders != rows[j].CODOrders {
			return rows[i].CODOrders > rows[j].CODOrders
		}
		return rows[i].Key < rows[j].Key
	})
}

func dimensionKey(o *orders.Order, dim Dimension) string {
	switch dim {
	case DimensionProvince:
		return o.Province
	case DimensionDistrict:
		return o.District
	case DimensionProduct:
		return o.Product
	case DimensionChannel:
		return o.Channel
	case DimensionSource:
		return o.Source
	}
	return ""
}
