package model

// OrderStatus is the lifecycle state of a procurement order.
type OrderStatus string

const (
	StatusNew             OrderStatus = "NEW"
	StatusInReview        OrderStatus = "IN_REVIEW"
	StatusPendingApproval OrderStatus = "PENDING_APPROVAL"
	StatusApproved        OrderStatus = "APPROVED"
	StatusOrdered         OrderStatus = "ORDERED"
	StatusOrderConfirmed  OrderStatus = "ORDER_CONFIRMED"
	StatusInTransit       OrderStatus = "IN_TRANSIT"
	StatusDelivered       OrderStatus = "DELIVERED"
	StatusNotified        OrderStatus = "NOTIFIED"
	StatusInvoiceVerified OrderStatus = "INVOICE_VERIFIED"
	StatusCompleted       OrderStatus = "COMPLETED"
	StatusRejected        OrderStatus = "REJECTED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusOnHold          OrderStatus = "ON_HOLD"
)

// AllStatuses lists every defined order status.
var AllStatuses = []OrderStatus{
	StatusNew,
	StatusInReview,
	StatusPendingApproval,
	StatusApproved,
	StatusOrdered,
	StatusOrderConfirmed,
	StatusInTransit,
	StatusDelivered,
	StatusNotified,
	StatusInvoiceVerified,
	StatusCompleted,
	StatusRejected,
	StatusCancelled,
	StatusOnHold,
}

// NextStatuses returns the statuses directly reachable from s.
// The switch is exhaustive over all defined statuses so the compiler-assisted
// review catches a new status that was never given outgoing edges.
func NextStatuses(s OrderStatus) []OrderStatus {
	switch s {
	case StatusNew:
		return []OrderStatus{StatusInReview, StatusRejected}
	case StatusInReview:
		return []OrderStatus{StatusPendingApproval, StatusApproved, StatusOnHold, StatusRejected}
	case StatusPendingApproval:
		return []OrderStatus{StatusApproved, StatusRejected, StatusOnHold}
	case StatusApproved:
		return []OrderStatus{StatusOrdered, StatusCancelled}
	case StatusOrdered:
		return []OrderStatus{StatusOrderConfirmed, StatusCancelled}
	case StatusOrderConfirmed:
		return []OrderStatus{StatusInTransit, StatusCancelled}
	case StatusInTransit:
		return []OrderStatus{StatusDelivered, StatusCancelled}
	case StatusDelivered:
		return []OrderStatus{StatusNotified, StatusCompleted}
	case StatusNotified:
		return []OrderStatus{StatusInvoiceVerified, StatusCompleted}
	case StatusInvoiceVerified:
		return []OrderStatus{StatusCompleted}
	case StatusCompleted, StatusRejected, StatusCancelled:
		return nil // terminal
	case StatusOnHold:
		return []OrderStatus{StatusInReview, StatusCancelled}
	default:
		return nil
	}
}

// IsLegalTransition reports whether the edge from -> to exists in the status
// graph. This is the single source of truth for structural legality and is
// role-agnostic.
func IsLegalTransition(from, to OrderStatus) bool {
	for _, next := range NextStatuses(from) {
		if next == to {
			return true
		}
	}
	return false
}

// IsValid reports whether s is one of the defined statuses.
func (s OrderStatus) IsValid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(NextStatuses(s)) == 0
}
