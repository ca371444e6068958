package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type DecideApprovalDTO struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`
}

type ApprovalFilter struct {
	Status     string // PENDING, APPROVED, REJECTED or empty for all
	ApproverID string
	Page       int
	Limit      int
}

// --- Interface ---

type ApprovalService interface {
	DecideApproval(ctx context.Context, orderID, approverID string, approved bool, comment string) (*ApprovalResponse, error)
	ListApprovals(ctx context.Context, filter ApprovalFilter) ([]ApprovalResponse, int64, error)
}

type approvalService struct {
	approvals repository.ApprovalRepository
	orders    repository.OrderRepository
	audits    repository.AuditRepository
	txm       repository.TransactionManager
	hub       interface{ GetBroadcast() chan []byte } // optional websocket hub
	now       func() time.Time
}

func NewApprovalService(
	approvals repository.ApprovalRepository,
	orders repository.OrderRepository,
	audits repository.AuditRepository,
	txm repository.TransactionManager,
	hub interface{ GetBroadcast() chan []byte },
) ApprovalService {
	return &approvalService{
		approvals: approvals,
		orders:    orders,
		audits:    audits,
		txm:       txm,
		hub:       hub,
		now:       time.Now,
	}
}

// --- Implementation ---

// DecideApproval resolves the pending approval for (order, approver) and
// drives the parent order out of PENDING_APPROVAL. When two approvers race,
// the first decision moves the order; the loser's decision is still committed
// and the caller gets OrderNotPendingApprovalError so it can tell the approver
// their verdict was recorded but did not steer the order.
func (s *approvalService) DecideApproval(ctx context.Context, orderID, approverID string, approved bool, comment string) (*ApprovalResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, &OrderNotFoundError{OrderID: orderID}
	}
	aid, err := uuid.Parse(approverID)
	if err != nil {
		return nil, fmt.Errorf("invalid approver id: %w", err)
	}

	target := model.StatusRejected
	action := model.ActionRejectOrder
	if approved {
		target = model.StatusApproved
		action = model.ActionApproveOrder
	}

	var approval *model.Approval
	var raceStatus model.OrderStatus
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		// Lock the order before the approval row — same order as
		// TransitionStatus, so the two paths cannot deadlock.
		order, findErr := s.orders.FindByIDForUpdate(txCtx, oid)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return &OrderNotFoundError{OrderID: orderID}
		}
		if findErr != nil {
			return findErr
		}

		approval, findErr = s.approvals.FindPendingForUpdate(txCtx, oid, aid)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return &ApprovalNotFoundError{OrderID: orderID, ApproverID: approverID}
		}
		if findErr != nil {
			return findErr
		}

		now := s.now()
		approval.Status = string(target) // APPROVED / REJECTED mirror the order statuses
		approval.Comment = comment
		approval.DecidedAt = &now
		if updateErr := s.approvals.Update(txCtx, approval); updateErr != nil {
			return fmt.Errorf("failed to update approval: %w", updateErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"order_no": order.OrderNo,
			"approved": approved,
			"comment":  comment,
		})
		if auditErr := s.audits.Log(txCtx, &model.AuditLog{
			UserID:     &aid,
			Action:     action,
			EntityID:   oid.String(),
			EntityName: order.OrderNo,
			Details:    string(details),
		}); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		// A sibling approver may already have moved the order. The decision
		// above still commits; only the order transition is skipped.
		if order.Status != model.StatusPendingApproval {
			raceStatus = order.Status
			return nil
		}

		swapped, swapErr := s.orders.UpdateStatusFrom(txCtx, oid, model.StatusPendingApproval, target)
		if swapErr != nil {
			return swapErr
		}
		if !swapped {
			raceStatus = order.Status
			return nil
		}

		from := model.StatusPendingApproval
		if histErr := s.orders.AppendHistory(txCtx, &model.StatusHistory{
			OrderID:    oid,
			FromStatus: &from,
			ToStatus:   target,
			ActorID:    &aid,
			Note:       comment,
		}); histErr != nil {
			return fmt.Errorf("failed to write history: %w", histErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if raceStatus != "" {
		return nil, &OrderNotPendingApprovalError{OrderID: orderID, Status: raceStatus}
	}

	s.broadcastDecision(oid, target, approverID)

	return toApprovalResponse(approval), nil
}

func (s *approvalService) ListApprovals(ctx context.Context, filter ApprovalFilter) ([]ApprovalResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	var approverID *uuid.UUID
	if filter.ApproverID != "" {
		parsed, err := uuid.Parse(filter.ApproverID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid approver id: %w", err)
		}
		approverID = &parsed
	}

	approvals, total, err := s.approvals.List(ctx, filter.Status, approverID, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list approvals: %w", err)
	}

	result := make([]ApprovalResponse, 0, len(approvals))
	for i := range approvals {
		result = append(result, *toApprovalResponse(&approvals[i]))
	}
	return result, total, nil
}

func (s *approvalService) broadcastDecision(orderID uuid.UUID, target model.OrderStatus, approverID string) {
	if s.hub == nil {
		return
	}

	order, err := s.orders.FindByID(context.Background(), orderID)
	if err != nil {
		return
	}

	from := string(model.StatusPendingApproval)
	payload, err := json.Marshal(statusEvent{
		Type:       "ORDER_STATUS_CHANGED",
		OrderNo:    order.OrderNo,
		FromStatus: &from,
		ToStatus:   string(target),
		ActorID:    approverID,
	})
	if err != nil {
		return
	}
	select {
	case s.hub.GetBroadcast() <- payload:
	default:
	}
}
