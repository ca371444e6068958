package model

// Role is the access-control category of an acting user. Permissions are a
// compile-time matrix rather than database rows: which statuses a role may
// drive an order into never changes at runtime.
type Role string

const (
	RoleRequester Role = "REQUESTER"
	RoleITSupport Role = "IT_SUPPORT"
	RoleEmpfang   Role = "EMPFANG" // reception desk staff
	RoleApprover  Role = "APPROVER"
	RoleAdmin     Role = "ADMIN"
)

// AllRoles lists every defined role.
var AllRoles = []Role{RoleRequester, RoleITSupport, RoleEmpfang, RoleApprover, RoleAdmin}

// operationalStatuses is the fulfillment range shared by IT support and
// reception: everything except resolving approvals.
var operationalStatuses = []OrderStatus{
	StatusInReview,
	StatusOrdered,
	StatusOrderConfirmed,
	StatusInTransit,
	StatusDelivered,
	StatusNotified,
	StatusInvoiceVerified,
	StatusCompleted,
	StatusCancelled,
	StatusOnHold,
}

// PermittedStatuses returns the set of statuses the role may transition an
// order into.
func PermittedStatuses(role Role) []OrderStatus {
	switch role {
	case RoleRequester:
		return nil // requesters never drive the state machine
	case RoleITSupport, RoleEmpfang:
		return operationalStatuses
	case RoleApprover:
		return []OrderStatus{StatusApproved, StatusRejected}
	case RoleAdmin:
		return AllStatuses
	default:
		return nil
	}
}

// IsAuthorized reports whether the role may drive an order into target.
func IsAuthorized(role Role, target OrderStatus) bool {
	for _, status := range PermittedStatuses(role) {
		if status == target {
			return true
		}
	}
	return false
}

// CanUserTransition reports whether the role may perform the transition
// from -> to. Both the structural graph and the role matrix must allow it.
func CanUserTransition(role Role, from, to OrderStatus) bool {
	return IsLegalTransition(from, to) && IsAuthorized(role, to)
}

// IsValid reports whether r is one of the defined roles.
func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
