package service

import (
	"errors"
	"fmt"
	"strings"

	"backend/internal/model"
)

// ErrEmptyOrder rejects order creation with no line items.
var ErrEmptyOrder = errors.New("order must contain at least one item")

// ProductNotFoundError names the referenced products that do not exist or are
// no longer active, so the caller can clear a stale cart.
type ProductNotFoundError struct {
	ProductIDs []string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("products not found or inactive: %s", strings.Join(e.ProductIDs, ", "))
}

// OrderNotFoundError reports a missing order.
type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}

// IllegalTransitionError reports a transition edge that does not exist in the
// status graph. A well-behaved client never offers such a target; this is a
// workflow-contract violation, distinct from an authorization failure.
type IllegalTransitionError struct {
	From model.OrderStatus
	To   model.OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s", e.From, e.To)
}

// UnauthorizedTransitionError reports a structurally legal transition the
// acting role is not permitted to perform. Always surfaced as access denied,
// never downgraded to a different transition.
type UnauthorizedTransitionError struct {
	Role   model.Role
	Target model.OrderStatus
}

func (e *UnauthorizedTransitionError) Error() string {
	return fmt.Sprintf("role %s may not transition orders to %s", e.Role, e.Target)
}

// ApprovalNotFoundError reports that no pending approval exists for the
// (order, approver) pair — either it was already decided or this approver was
// never asked.
type ApprovalNotFoundError struct {
	OrderID    string
	ApproverID string
}

func (e *ApprovalNotFoundError) Error() string {
	return fmt.Sprintf("no pending approval on order %s for approver %s", e.OrderID, e.ApproverID)
}

// NoApproverFoundError reports that an order requires approval but no approver
// matches the requester's department. Creation fails closed instead of leaving
// the order stranded in NEW.
type NoApproverFoundError struct {
	Department string
}

func (e *NoApproverFoundError) Error() string {
	return fmt.Sprintf("no approver found for department %q", e.Department)
}

// OrderNotPendingApprovalError reports that a decision was recorded but the
// order had already left PENDING_APPROVAL (a sibling approver won the race).
// The approval itself is persisted; only the order transition was skipped.
type OrderNotPendingApprovalError struct {
	OrderID string
	Status  model.OrderStatus
}

func (e *OrderNotPendingApprovalError) Error() string {
	return fmt.Sprintf("order %s is no longer pending approval (current status %s)", e.OrderID, e.Status)
}
