package analytics

import "github.com/mbd888/codtrack/internal/orders"

// CODFunnel counts COD orders at each stage of the confirmation flow.
//
// NoResponse is approximated from the other counters: a confirmation was sent
// but the customer neither confirmed nor cancelled. Because legacy records can
// carry confirmations without a sent timestamp, the subtraction is floored at
// zero rather than trusted blindly.
type CODFunnel struct {
	Created           int `json:"created"`
	ConfirmationSent  int `json:"confirmationSent"`
	CustomerConfirmed int `json:"customerConfirmed"`
	CustomerCancelled int `json:"customerCancelled"`
	NoResponse        int `json:"noResponse"`
	// ConfirmationPassed counts only orders that cleared the risk-gated
	// confirmation step. CustomerConfirmed is broader: it includes low-risk
	// orders that were never routed through confirmation at all.
	ConfirmationPassed int `json:"confirmationPassed"`
	Paid               int `json:"paid"`
}

// ComputeCODFunnel derives the confirmation funnel from an order collection.
// Prepaid orders are excluded entirely.
func ComputeCODFunnel(all []*orders.Order) CODFunnel {
	var f CODFunnel
	for _, o := range all {
		if !orders.IsCOD(o) {
			continue
		}
		f.Created++
		if o.ConfirmationSentAt != nil {
			f.ConfirmationSent++
		}
		if o.CustomerConfirmedAt != nil || o.Status == orders.StatusCustomerConfirmed {
			f.CustomerConfirmed++
		}
		if o.Status == orders.StatusCustomerCancelled {
			f.CustomerCancelled++
		}
		if orders.HasBeenCustomerConfirmed(o) {
			f.ConfirmationPassed++
		}
		if orders.HasBeenPaid(o) {
			f.Paid++
		}
	}
	f.NoResponse = f.ConfirmationSent - (f.CustomerConfirmed + f.CustomerCancelled)
	if f.NoResponse < 0 {
		f.NoResponse = 0
	}
	return f
}

// StrictFunnel tracks COD orders through approval to terminal outcomes.
type StrictFunnel struct {
	Approved  int `json:"approved"`
	Paid      int `json:"paid"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Rejected  int `json:"rejected"`
}

// ComputeStrictFunnel derives the approval funnel over COD orders.
//
// An order counts as approved once it has passed review for its risk tier:
// low-risk (and unscored) orders are auto-approved unless rejected, while
// medium and high risk orders count only after leaving the review states.
func ComputeStrictFunnel(all []*orders.Order) StrictFunnel {
	var f StrictFunnel
	for _, o := range all {
		if !orders.IsCOD(o) {
			continue
		}
		if approved(o) {
			f.Approved++
		}
		if orders.HasBeenPaid(o) {
			f.Paid++
		}
		switch o.Status {
		case orders.StatusCompleted:
			f.Completed++
		case orders.StatusCustomerCancelled, orders.StatusCustomerUnreachable:
			f.Cancelled++
		case orders.StatusRejected:
			f.Rejected++
		}
	}
	return f
}

func approved(o *orders.Order) bool {
	switch o.RiskLevel() {
	case orders.RiskLevelMedium, orders.RiskLevelHigh:
		switch o.Status {
		case orders.StatusPendingReview, orders.StatusVerificationRequired:
			return false
		}
		return true
	default:
		return o.Status != orders.StatusRejected
	}
}
