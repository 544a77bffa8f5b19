// Package orders defines the order model, the canonical status taxonomy, and
// the shared classification rules for the Codtrack platform.
//
// Every subsystem that reasons about an order's outcome (risk scoring,
// customer risk learning, analytics) imports its predicates from here.
// Duplicating IsCOD or the success/boom status sets elsewhere forks the
// business definition of "success" across subsystems — don't.
package orders

import (
	"errors"
	"strings"
	"time"
)

// Errors
var (
	ErrNotFound       = errors.New("orders: not found")
	ErrStatusConflict = errors.New("orders: status changed concurrently")
)

// Status is an order's lifecycle state.
//
// Values outside the canonical set are carried as-is rather than rejected:
// historical records ingested before a taxonomy change must never become
// unreadable. Use Known to distinguish canonical values.
type Status string

const (
	StatusPendingReview        Status = "PENDING_REVIEW"
	StatusVerificationRequired Status = "VERIFICATION_REQUIRED"
	StatusApproved             Status = "ORDER_APPROVED"
	StatusConfirmationSent     Status = "ORDER_CONFIRMATION_SENT"
	StatusCustomerConfirmed    Status = "CUSTOMER_CONFIRMED"
	StatusCustomerCancelled    Status = "CUSTOMER_CANCELLED"
	StatusCustomerUnreachable  Status = "CUSTOMER_UNREACHABLE"
	StatusRejected             Status = "ORDER_REJECTED"
	StatusDelivering           Status = "DELIVERING"
	StatusPaid                 Status = "ORDER_PAID"
	StatusCompleted            Status = "COMPLETED"
	StatusReturned             Status = "RETURNED"
	StatusExchanged            Status = "EXCHANGED"
)

// AllStatuses lists every canonical status.
var AllStatuses = []Status{
	StatusPendingReview,
	StatusVerificationRequired,
	StatusApproved,
	StatusConfirmationSent,
	StatusCustomerConfirmed,
	StatusCustomerCancelled,
	StatusCustomerUnreachable,
	StatusRejected,
	StatusDelivering,
	StatusPaid,
	StatusCompleted,
	StatusReturned,
	StatusExchanged,
}

var knownStatuses = func() map[Status]bool {
	m := make(map[Status]bool, len(AllStatuses))
	for _, s := range AllStatuses {
		m[s] = true
	}
	return m
}()

// Known reports whether s is one of the canonical statuses.
func (s Status) Known() bool { return knownStatuses[s] }

// successStatuses are the states in which an order counts as converted.
var successStatuses = map[Status]bool{
	StatusPaid:      true,
	StatusCompleted: true,
}

// boomStatuses are the failure outcomes from the merchant's perspective.
var boomStatuses = map[Status]bool{
	StatusCustomerCancelled:   true,
	StatusCustomerUnreachable: true,
	StatusRejected:            true,
}

// RiskLevel buckets a 0-100 risk score.
type RiskLevel string

const (
	RiskLevelNone   RiskLevel = "none"
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// LevelForScore maps a risk score to its level.
// nil → none, [0,30] → low, (30,70] → medium, (70,100] → high.
func LevelForScore(score *int) RiskLevel {
	switch {
	case score == nil:
		return RiskLevelNone
	case *score <= 30:
		return RiskLevelLow
	case *score <= 70:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}

// Order is a single customer order. Immutable once risk-scored except for the
// status and timeline fields, which are mutated only through the validated
// lifecycle state machine and the payment/refund recorders.
type Order struct {
	ID           string `json:"id"`
	MerchantID   string `json:"merchantId"`
	Code         string `json:"code"` // merchant-facing order code
	Phone        string `json:"phone"`
	CustomerName string `json:"customerName"`

	Amount              int64  `json:"amount"` // integer currency units
	DiscountAmount      int64  `json:"discountAmount"`
	ShippingFee         int64  `json:"shippingFee"`
	CustomerShippingFee int64  `json:"customerShippingFee"`
	SellerShippingFee   int64  `json:"sellerShippingFee"`
	RefundedAmount      int64  `json:"refundedAmount"`
	PaymentMethod       string `json:"paymentMethod"` // empty or "COD" = cash on delivery

	Status    Status `json:"status"`
	RiskScore *int   `json:"riskScore,omitempty"` // 0-100, nil when unscored

	Province string `json:"province,omitempty"`
	District string `json:"district,omitempty"`
	Ward     string `json:"ward,omitempty"`
	Product  string `json:"product,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Source   string `json:"source,omitempty"`

	CreatedAt           time.Time  `json:"createdAt"`
	OrderDate           time.Time  `json:"orderDate"` // business date, may differ from CreatedAt
	ConfirmationSentAt  *time.Time `json:"confirmationSentAt,omitempty"`
	CustomerConfirmedAt *time.Time `json:"customerConfirmedAt,omitempty"`
	PaidAt              *time.Time `json:"paidAt,omitempty"`
	ShippedAt           *time.Time `json:"shippedAt,omitempty"`
	CancelledAt         *time.Time `json:"cancelledAt,omitempty"`
	CancelReason        string     `json:"cancelReason,omitempty"`
	RejectReason        string     `json:"rejectReason,omitempty"`
}

// RiskLevel returns the order's risk level, derived from its score.
func (o *Order) RiskLevel() RiskLevel { return LevelForScore(o.RiskScore) }

// BusinessDate is the date the order belongs to for chronology and bucketing:
// the business order date, falling back to creation time when absent.
func (o *Order) BusinessDate() time.Time {
	if !o.OrderDate.IsZero() {
		return o.OrderDate
	}
	return o.CreatedAt
}

// IsCOD reports whether the order is cash-on-delivery. An empty payment
// method means COD; only an explicit non-COD method marks an order prepaid.
func IsCOD(o *Order) bool {
	m := strings.TrimSpace(o.PaymentMethod)
	return m == "" || strings.EqualFold(m, "COD")
}

// IsSuccess reports whether the order converted (paid or completed).
func IsSuccess(o *Order) bool { return successStatuses[o.Status] }

// IsBoom reports whether the order failed from the merchant's perspective:
// cancelled by the customer, unreachable, or rejected.
func IsBoom(o *Order) bool { return boomStatuses[o.Status] }

// HasBeenPaid reports whether payment was ever collected, independent of the
// current status. An order can be paid while still DELIVERING.
func HasBeenPaid(o *Order) bool { return o.PaidAt != nil }

// HasBeenCustomerConfirmed reports whether the order passed the explicit
// customer confirmation step. Only COD orders at medium or high risk are
// routed through confirmation; low-risk COD orders skip it.
func HasBeenCustomerConfirmed(o *Order) bool {
	if !IsCOD(o) {
		return false
	}
	switch o.RiskLevel() {
	case RiskLevelMedium, RiskLevelHigh:
	default:
		return false
	}
	if o.CustomerConfirmedAt != nil {
		return true
	}
	switch o.Status {
	case StatusCustomerConfirmed, StatusDelivering, StatusCompleted:
		return true
	}
	return false
}
