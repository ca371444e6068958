package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateOrderItemDTO struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderDTO struct {
	CostCenter     string               `json:"cost_center" binding:"required"`
	Items          []CreateOrderItemDTO `json:"items"`
	SpecialRequest string               `json:"special_request"`
	Justification  string               `json:"justification"`
}

type TransitionStatusDTO struct {
	TargetStatus string `json:"target_status" binding:"required"`
	Note         string `json:"note"`
}

type OrderFilter struct {
	Status      string
	RequesterID string
	Page        int
	Limit       int
}

type OrderItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type StatusHistoryResponse struct {
	FromStatus *string `json:"from_status"`
	ToStatus   string  `json:"to_status"`
	ActorID    *string `json:"actor_id"`
	Note       string  `json:"note"`
	CreatedAt  string  `json:"created_at"`
}

type ApprovalResponse struct {
	ID           string  `json:"id"`
	OrderID      string  `json:"order_id"`
	ApproverID   string  `json:"approver_id"`
	ApproverName string  `json:"approver_name,omitempty"`
	Status       string  `json:"status"`
	Comment      string  `json:"comment"`
	DecidedAt    *string `json:"decided_at"`
	CreatedAt    string  `json:"created_at"`
}

type CommentResponse struct {
	ID        string `json:"id"`
	AuthorID  string `json:"author_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type OrderResponse struct {
	ID             string                  `json:"id"`
	OrderNo        string                  `json:"order_no"`
	Status         string                  `json:"status"`
	RequesterID    string                  `json:"requester_id"`
	RequesterName  string                  `json:"requester_name,omitempty"`
	CostCenter     string                  `json:"cost_center"`
	SpecialRequest string                  `json:"special_request,omitempty"`
	Justification  string                  `json:"justification,omitempty"`
	NextStatuses   []model.OrderStatus     `json:"next_statuses"`
	Items          []OrderItemResponse     `json:"items"`
	Approvals      []ApprovalResponse      `json:"approvals,omitempty"`
	History        []StatusHistoryResponse `json:"history,omitempty"`
	Comments       []CommentResponse       `json:"comments,omitempty"`
	CreatedAt      string                  `json:"created_at"`
}

// statusEvent is the payload broadcast to dashboard websocket clients.
type statusEvent struct {
	Type       string  `json:"type"`
	OrderNo    string  `json:"order_no"`
	FromStatus *string `json:"from_status"`
	ToStatus   string  `json:"to_status"`
	ActorID    string  `json:"actor_id,omitempty"`
}

// --- Interface ---

type OrderService interface {
	CreateOrder(ctx context.Context, requesterID string, req CreateOrderDTO) (*OrderResponse, error)
	TransitionStatus(ctx context.Context, orderID string, target model.OrderStatus, actorRole model.Role, actorID string, note string) (*OrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (*OrderResponse, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]OrderResponse, int64, error)
	AddComment(ctx context.Context, orderID, authorID, text string) (*CommentResponse, error)
}

type orderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	users     repository.UserRepository
	approvals repository.ApprovalRepository
	audits    repository.AuditRepository
	txm       repository.TransactionManager
	hub       interface{ GetBroadcast() chan []byte } // optional websocket hub
	now       func() time.Time
	randInt   func(n int) int
}

// NewOrderService wires the order lifecycle engine. The clock and random
// source back the order number generator and decision timestamps; tests swap
// them for determinism.
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	approvals repository.ApprovalRepository,
	audits repository.AuditRepository,
	txm repository.TransactionManager,
	hub interface{ GetBroadcast() chan []byte },
) OrderService {
	return &orderService{
		orders:    orders,
		products:  products,
		users:     users,
		approvals: approvals,
		audits:    audits,
		txm:       txm,
		hub:       hub,
		now:       time.Now,
		randInt:   rand.Intn,
	}
}

const maxOrderNoAttempts = 5

// --- Implementation ---

// CreateOrder persists a new order in NEW with its initial history entry, then
// immediately evaluates the approval requirement. When approval is needed the
// order moves straight to PENDING_APPROVAL with a PENDING approval for the
// requester's department approver — all in one transaction. If no approver
// matches, creation fails closed with NoApproverFoundError rather than leaving
// the order stranded in NEW.
func (s *orderService) CreateOrder(ctx context.Context, requesterID string, req CreateOrderDTO) (*OrderResponse, error) {
	reqID, err := uuid.Parse(requesterID)
	if err != nil {
		return nil, fmt.Errorf("invalid requester id: %w", err)
	}

	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive for product %s", item.ProductID)
		}
	}

	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("requester not found: %w", err)
	}

	products, missing, err := s.resolveProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &ProductNotFoundError{ProductIDs: missing}
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	needsApproval := false
	for _, item := range req.Items {
		product := products[item.ProductID]
		if product.RequiresApproval {
			needsApproval = true
		}
		items = append(items, model.OrderItem{
			ProductID: product.ID,
			Product:   *product,
			Quantity:  item.Quantity,
			UnitPrice: product.UnitPrice,
		})
	}

	order := &model.Order{
		Status:         model.StatusNew,
		RequesterID:    reqID,
		CostCenter:     req.CostCenter,
		SpecialRequest: req.SpecialRequest,
		Justification:  req.Justification,
		Items:          items,
	}
	if !needsApproval {
		needsApproval = model.RequiresApproval(order)
	}

	// Resolve the approver before writing anything so a missing approver
	// leaves no partial order behind.
	var approver *model.User
	if needsApproval {
		approver, err = s.users.FindApproverByDepartment(ctx, requester.Department)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NoApproverFoundError{Department: requester.Department}
		}
		if err != nil {
			return nil, fmt.Errorf("approver lookup failed: %w", err)
		}
	}

	// The order number carries a random suffix and is only unique by
	// constraint; on a collision the whole transaction is retried with a
	// fresh number.
	for attempt := 0; ; attempt++ {
		order.ID = uuid.Nil
		order.OrderNo = s.generateOrderNo()

		err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
			return s.createOrderTx(txCtx, order, requester, approver, needsApproval)
		})
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < maxOrderNoAttempts-1 {
			continue
		}
		return nil, err
	}

	created, err := s.orders.FindByIDWithDetails(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	s.broadcast(statusEvent{
		Type:     "ORDER_CREATED",
		OrderNo:  created.OrderNo,
		ToStatus: string(created.Status),
		ActorID:  requesterID,
	})

	return toOrderResponse(created), nil
}

func (s *orderService) createOrderTx(ctx context.Context, order *model.Order, requester, approver *model.User, needsApproval bool) error {
	if err := s.orders.Create(ctx, order); err != nil {
		return err
	}

	actorID := requester.ID
	if err := s.orders.AppendHistory(ctx, &model.StatusHistory{
		OrderID:  order.ID,
		ToStatus: model.StatusNew,
		ActorID:  &actorID,
	}); err != nil {
		return fmt.Errorf("failed to write initial history: %w", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"order_no":    order.OrderNo,
		"cost_center": order.CostCenter,
		"item_count":  len(order.Items),
	})
	if err := s.audits.Log(ctx, &model.AuditLog{
		UserID:     &actorID,
		Action:     model.ActionCreateOrder,
		EntityID:   order.ID.String(),
		EntityName: order.OrderNo,
		Details:    string(details),
	}); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	if !needsApproval {
		return nil
	}

	if err := s.approvals.Create(ctx, &model.Approval{
		OrderID:    order.ID,
		ApproverID: approver.ID,
		Status:     model.ApprovalPending,
	}); err != nil {
		return fmt.Errorf("failed to create approval: %w", err)
	}

	swapped, err := s.orders.UpdateStatusFrom(ctx, order.ID, model.StatusNew, model.StatusPendingApproval)
	if err != nil {
		return fmt.Errorf("failed to move order to pending approval: %w", err)
	}
	if !swapped {
		return fmt.Errorf("order %s changed status during creation", order.OrderNo)
	}
	order.Status = model.StatusPendingApproval

	from := model.StatusNew
	if err := s.orders.AppendHistory(ctx, &model.StatusHistory{
		OrderID:    order.ID,
		FromStatus: &from,
		ToStatus:   model.StatusPendingApproval,
		ActorID:    &actorID,
		Note:       "approval required",
	}); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}

	approvalDetails, _ := json.Marshal(map[string]interface{}{
		"order_no":    order.OrderNo,
		"approver_id": approver.ID.String(),
		"department":  approver.Department,
	})
	if err := s.audits.Log(ctx, &model.AuditLog{
		UserID:     &actorID,
		Action:     model.ActionCreateApproval,
		EntityID:   order.ID.String(),
		EntityName: order.OrderNo,
		Details:    string(approvalDetails),
	}); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	return nil
}

// TransitionStatus is the sole path that moves an order between statuses. The
// order row is locked for the whole transaction, the transition is validated
// against the current status, and the status swap lands together with exactly
// one history entry — a reader never sees one without the other.
func (s *orderService) TransitionStatus(ctx context.Context, orderID string, target model.OrderStatus, actorRole model.Role, actorID string, note string) (*OrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, &OrderNotFoundError{OrderID: orderID}
	}
	aid, err := uuid.Parse(actorID)
	if err != nil {
		return nil, fmt.Errorf("invalid actor id: %w", err)
	}

	var fromStatus model.OrderStatus
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orders.FindByIDForUpdate(txCtx, oid)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return &OrderNotFoundError{OrderID: orderID}
		}
		if findErr != nil {
			return findErr
		}

		fromStatus = order.Status
		if !model.IsLegalTransition(order.Status, target) {
			return &IllegalTransitionError{From: order.Status, To: target}
		}
		if !model.IsAuthorized(actorRole, target) {
			return &UnauthorizedTransitionError{Role: actorRole, Target: target}
		}

		swapped, swapErr := s.orders.UpdateStatusFrom(txCtx, oid, order.Status, target)
		if swapErr != nil {
			return swapErr
		}
		if !swapped {
			// Unreachable while the row lock is held; a failed swap would
			// mean the status moved underneath us.
			return &IllegalTransitionError{From: order.Status, To: target}
		}

		if histErr := s.orders.AppendHistory(txCtx, &model.StatusHistory{
			OrderID:    oid,
			FromStatus: &fromStatus,
			ToStatus:   target,
			ActorID:    &aid,
			Note:       note,
		}); histErr != nil {
			return fmt.Errorf("failed to write history: %w", histErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"order_no": order.OrderNo,
			"from":     fromStatus,
			"to":       target,
			"role":     actorRole,
		})
		if auditErr := s.audits.Log(txCtx, &model.AuditLog{
			UserID:     &aid,
			Action:     model.ActionTransitionStatus,
			EntityID:   oid.String(),
			EntityName: order.OrderNo,
			Details:    string(details),
		}); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.orders.FindByIDWithDetails(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	from := string(fromStatus)
	s.broadcast(statusEvent{
		Type:       "ORDER_STATUS_CHANGED",
		OrderNo:    updated.OrderNo,
		FromStatus: &from,
		ToStatus:   string(updated.Status),
		ActorID:    actorID,
	})

	return toOrderResponse(updated), nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, &OrderNotFoundError{OrderID: orderID}
	}

	order, err := s.orders.FindByIDWithDetails(ctx, oid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &OrderNotFoundError{OrderID: orderID}
	}
	if err != nil {
		return nil, err
	}

	return toOrderResponse(order), nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderFilter) ([]OrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	status := model.OrderStatus(filter.Status)
	if filter.Status != "" && !status.IsValid() {
		return nil, 0, fmt.Errorf("unknown status %q", filter.Status)
	}

	var requesterID *uuid.UUID
	if filter.RequesterID != "" {
		parsed, parseErr := uuid.Parse(filter.RequesterID)
		if parseErr != nil {
			return nil, 0, fmt.Errorf("invalid requester id: %w", parseErr)
		}
		requesterID = &parsed
	}

	orders, total, err := s.orders.List(ctx, status, requesterID, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	result := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, *toOrderResponse(&orders[i]))
	}
	return result, total, nil
}

func (s *orderService) AddComment(ctx context.Context, orderID, authorID, text string) (*CommentResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, &OrderNotFoundError{OrderID: orderID}
	}
	aid, err := uuid.Parse(authorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author id: %w", err)
	}
	if text == "" {
		return nil, errors.New("comment text must not be empty")
	}

	comment := &model.Comment{OrderID: oid, AuthorID: aid, Text: text}
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.orders.FindByID(txCtx, oid); errors.Is(findErr, gorm.ErrRecordNotFound) {
			return &OrderNotFoundError{OrderID: orderID}
		} else if findErr != nil {
			return findErr
		}
		if createErr := s.orders.CreateComment(txCtx, comment); createErr != nil {
			return fmt.Errorf("failed to create comment: %w", createErr)
		}
		return s.audits.Log(txCtx, &model.AuditLog{
			UserID:   &aid,
			Action:   model.ActionAddComment,
			EntityID: oid.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	return &CommentResponse{
		ID:        comment.ID.String(),
		AuthorID:  authorID,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
	}, nil
}

// --- Helpers ---

// resolveProducts loads the active products referenced by the items and
// reports the identifiers that could not be resolved.
func (s *orderService) resolveProducts(ctx context.Context, items []CreateOrderItemDTO) (map[string]*model.Product, []string, error) {
	ids := make([]uuid.UUID, 0, len(items))
	var missing []string
	for _, item := range items {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			missing = append(missing, item.ProductID)
			continue
		}
		ids = append(ids, id)
	}

	found, err := s.products.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("product lookup failed: %w", err)
	}

	byID := make(map[string]*model.Product, len(found))
	for i := range found {
		byID[found[i].ID.String()] = &found[i]
	}
	for _, item := range items {
		if _, ok := byID[item.ProductID]; !ok {
			missing = append(missing, item.ProductID)
		}
	}
	// De-duplicate: a parse failure was already recorded above.
	seen := make(map[string]bool, len(missing))
	unique := missing[:0]
	for _, id := range missing {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	return byID, unique, nil
}

// generateOrderNo builds a date-coded order number BEST-YYYYMMDD-NNNN with a
// random zero-padded suffix. Not globally unique by construction; the unique
// constraint plus retry in CreateOrder handles collisions.
func (s *orderService) generateOrderNo() string {
	return fmt.Sprintf("BEST-%s-%04d", s.now().Format("20060102"), s.randInt(10000))
}

func (s *orderService) broadcast(event statusEvent) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case s.hub.GetBroadcast() <- payload:
	default:
		// Dashboard updates are best effort; never block a request on them.
	}
}

func toOrderResponse(order *model.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:             order.ID.String(),
		OrderNo:        order.OrderNo,
		Status:         string(order.Status),
		RequesterID:    order.RequesterID.String(),
		CostCenter:     order.CostCenter,
		SpecialRequest: order.SpecialRequest,
		Justification:  order.Justification,
		NextStatuses:   model.NextStatuses(order.Status),
		CreatedAt:      order.CreatedAt.Format(time.RFC3339),
	}
	if order.Requester != nil {
		resp.RequesterName = order.Requester.Username
	}

	resp.Items = make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:   item.ProductID.String(),
			ProductName: item.Product.Name,
			ProductSKU:  item.Product.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
		})
	}

	for _, approval := range order.Approvals {
		resp.Approvals = append(resp.Approvals, *toApprovalResponse(&approval))
	}

	for _, entry := range order.History {
		h := StatusHistoryResponse{
			ToStatus:  string(entry.ToStatus),
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		}
		if entry.FromStatus != nil {
			from := string(*entry.FromStatus)
			h.FromStatus = &from
		}
		if entry.ActorID != nil {
			actor := entry.ActorID.String()
			h.ActorID = &actor
		}
		resp.History = append(resp.History, h)
	}

	for _, comment := range order.Comments {
		resp.Comments = append(resp.Comments, CommentResponse{
			ID:        comment.ID.String(),
			AuthorID:  comment.AuthorID.String(),
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt.Format(time.RFC3339),
		})
	}

	return resp
}

func toApprovalResponse(a *model.Approval) *ApprovalResponse {
	resp := &ApprovalResponse{
		ID:         a.ID.String(),
		OrderID:    a.OrderID.String(),
		ApproverID: a.ApproverID.String(),
		Status:     a.Status,
		Comment:    a.Comment,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	if a.Approver != nil {
		resp.ApproverName = a.Approver.Username
	}
	if a.DecidedAt != nil {
		decided := a.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &decided
	}
	return resp
}
