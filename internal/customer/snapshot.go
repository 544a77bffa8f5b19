package customer

import (
	"context"
	"time"

	"github.com/mbd888/codtrack/internal/orders"
)

// Snapshot is a point-in-time customer risk score stored for history charts.
type Snapshot struct {
	ID            int              `json:"id"`
	MerchantID    string           `json:"merchantId"`
	Phone         string           `json:"phone"`
	Score         int              `json:"score"`
	Level         orders.RiskLevel `json:"level"`
	BaseScore     int              `json:"baseScore"`
	TotalOrders   int              `json:"totalOrders"`
	SuccessOrders int              `json:"successOrders"`
	FailedOrders  int              `json:"failedOrders"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// SnapshotFromProfile converts a calculated profile into a snapshot.
func SnapshotFromProfile(merchantID string, p *Profile) *Snapshot {
	return &Snapshot{
		MerchantID:    merchantID,
		Phone:         p.Phone,
		Score:         p.Score,
		Level:         p.Level,
		BaseScore:     p.BaseScore,
		TotalOrders:   p.TotalOrders,
		SuccessOrders: p.SuccessOrders,
		FailedOrders:  p.FailedOrders,
		CreatedAt:     time.Now(),
	}
}

// HistoryQuery selects historical snapshots for one phone.
type HistoryQuery struct {
	MerchantID string
	Phone      string
	From       time.Time
	To         time.Time
	Limit      int
}

// SnapshotStore persists risk snapshots.
type SnapshotStore interface {
	SaveBatch(ctx context.Context, snaps []*Snapshot) error
	Query(ctx context.Context, q HistoryQuery) ([]*Snapshot, error)
}
