// Package lifecycle implements the order status state machine.
//
// The transition table below is the single source of truth for what can
// happen next to an order. Every status write must be validated here first;
// a rejected transition aborts the whole mutation.
package lifecycle

import (
	"fmt"

	"github.com/mbd888/codtrack/internal/orders"
)

// transitions maps each status to the statuses reachable directly from it.
var transitions = map[orders.Status][]orders.Status{
	orders.StatusPendingReview: {
		orders.StatusVerificationRequired,
		orders.StatusApproved,
		orders.StatusRejected,
		orders.StatusCustomerCancelled,
		orders.StatusPaid,
	},
	orders.StatusVerificationRequired: {
		orders.StatusApproved,
		orders.StatusRejected,
		orders.StatusCustomerCancelled,
		orders.StatusCustomerUnreachable,
	},
	orders.StatusApproved: {
		orders.StatusConfirmationSent,
		orders.StatusCustomerConfirmed,
		orders.StatusDelivering,
		orders.StatusCustomerCancelled,
		orders.StatusRejected,
		orders.StatusPaid,
	},
	orders.StatusConfirmationSent: {
		orders.StatusCustomerConfirmed,
		orders.StatusCustomerCancelled,
		orders.StatusCustomerUnreachable,
		orders.StatusPaid,
		orders.StatusRejected,
		orders.StatusDelivering,
	},
	orders.StatusCustomerConfirmed: {
		orders.StatusDelivering,
		orders.StatusPaid,
		orders.StatusCustomerCancelled,
		orders.StatusRejected,
	},
	orders.StatusDelivering: {
		orders.StatusCompleted,
		orders.StatusPaid,
		orders.StatusCustomerCancelled,
		orders.StatusCustomerUnreachable,
		orders.StatusRejected,
		orders.StatusReturned,
		orders.StatusExchanged,
	},
	orders.StatusPaid: {
		orders.StatusDelivering,
		orders.StatusCompleted,
		orders.StatusCustomerCancelled,
		orders.StatusRejected,
	},
	// COMPLETED can flip to paid-state bookkeeping or a post-sale outcome,
	// but never reopens to review.
	orders.StatusCompleted: {
		orders.StatusPaid,
		orders.StatusReturned,
		orders.StatusExchanged,
	},
	// Failure outcomes reopen for another attempt.
	orders.StatusCustomerCancelled:   {orders.StatusPendingReview},
	orders.StatusCustomerUnreachable: {orders.StatusPendingReview},
	orders.StatusRejected:            {orders.StatusPendingReview},
	orders.StatusReturned:            {orders.StatusPendingReview, orders.StatusExchanged},
	orders.StatusExchanged:           {orders.StatusPendingReview},
}

// TransitionError reports an illegal status transition.
type TransitionError struct {
	From orders.Status
	To   orders.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("lifecycle: illegal transition from %s to %s", e.From, e.To)
}

// CanTransition reports whether an order may move from one status to another.
// Identity transitions are always legal (idempotent no-op), and any transition
// away from an unrecognized legacy status is permitted so old data is never
// permanently stuck.
func CanTransition(from, to orders.Status) bool {
	if from == to {
		return true
	}
	if !from.Known() {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a *TransitionError naming both statuses when the
// transition is illegal. Callers must abort the entire mutation on error.
func ValidateTransition(from, to orders.Status) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// Next returns the statuses reachable directly from the given status. For an
// unrecognized status every canonical status is reachable.
func Next(from orders.Status) []orders.Status {
	if !from.Known() {
		return orders.AllStatuses
	}
	next := transitions[from]
	out := make([]orders.Status, len(next))
	copy(out, next)
	return out
}
