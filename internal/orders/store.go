package orders

import (
	"context"
	"time"

	"github.com/mbd888/codtrack/internal/pagination"
)

// ListQuery selects a page of a merchant's orders, newest first.
type ListQuery struct {
	MerchantID string
	From, To   time.Time // zero values mean unbounded
	Status     Status    // optional filter; empty matches all
	Limit      int
	Cursor     *pagination.Cursor
}

// StatusUpdate describes a requested status mutation. The store stamps the
// matching timeline field the first time a status is reached.
type StatusUpdate struct {
	To     Status
	Reason string // cancel or reject reason, depending on To
	At     time.Time
}

// Store persists orders.
//
// UpdateStatus must be compare-and-set on the expected current status so the
// read-validate-write sequence at the state-machine boundary cannot
// interleave with another write to the same order.
type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, merchantID, id string) (*Order, error)
	List(ctx context.Context, q ListQuery) ([]*Order, error)
	// ListRange returns all of a merchant's orders with a business date in
	// [from, to]. Used by the analytics pipeline.
	ListRange(ctx context.Context, merchantID string, from, to time.Time) ([]*Order, error)
	// ListByPhone returns a phone's full order history for the merchant,
	// oldest first. Used by the risk learning engine.
	ListByPhone(ctx context.Context, merchantID, phone string) ([]*Order, error)
	// ListPhones returns the distinct customer phones for a merchant.
	ListPhones(ctx context.Context, merchantID string) ([]string, error)
	UpdateStatus(ctx context.Context, merchantID, id string, expect Status, upd StatusUpdate) (*Order, error)
	RecordPayment(ctx context.Context, merchantID, id string, paidAt time.Time) (*Order, error)
	RecordRefund(ctx context.Context, merchantID, id string, amount int64) (*Order, error)
}

// applyStatusUpdate mutates o in place with the new status and timeline
// stamps. First transition into a status wins; re-entering does not restamp.
func applyStatusUpdate(o *Order, upd StatusUpdate) {
	o.Status = upd.To
	at := upd.At
	if at.IsZero() {
		at = time.Now()
	}
	switch upd.To {
	case StatusConfirmationSent:
		if o.ConfirmationSentAt == nil {
			t := at
			o.ConfirmationSentAt = &t
		}
	case StatusCustomerConfirmed:
		if o.CustomerConfirmedAt == nil {
			t := at
			o.CustomerConfirmedAt = &t
		}
	case StatusDelivering:
		if o.ShippedAt == nil {
			t := at
			o.ShippedAt = &t
		}
	case StatusPaid:
		if o.PaidAt == nil {
			t := at
			o.PaidAt = &t
		}
	case StatusCustomerCancelled, StatusCustomerUnreachable:
		if o.CancelledAt == nil {
			t := at
			o.CancelledAt = &t
		}
		if upd.Reason != "" {
			o.CancelReason = upd.Reason
		}
	case StatusRejected:
		if o.CancelledAt == nil {
			t := at
			o.CancelledAt = &t
		}
		if upd.Reason != "" {
			o.RejectReason = upd.Reason
		}
	}
}
