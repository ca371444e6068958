package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApprovalRepository interface {
	Create(ctx context.Context, approval *model.Approval) error
	Update(ctx context.Context, approval *model.Approval) error
	FindPendingForUpdate(ctx context.Context, orderID, approverID uuid.UUID) (*model.Approval, error)
	FindPendingByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Approval, error)
	List(ctx context.Context, status string, approverID *uuid.UUID, page, limit int) ([]model.Approval, int64, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, approval *model.Approval) error {
	return GetDB(ctx, r.db).Create(approval).Error
}

func (r *approvalRepository) Update(ctx context.Context, approval *model.Approval) error {
	return GetDB(ctx, r.db).Save(approval).Error
}

// FindPendingForUpdate locks the unique PENDING approval for the
// (order, approver) pair so two submissions of the same decision cannot both
// resolve it.
func (r *approvalRepository) FindPendingForUpdate(ctx context.Context, orderID, approverID uuid.UUID) (*model.Approval, error) {
	var approval model.Approval
	if err := lockForUpdate(GetDB(ctx, r.db)).
		Where("order_id = ? AND approver_id = ? AND status = ?", orderID, approverID, model.ApprovalPending).
		First(&approval).Error; err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) FindPendingByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Approval, error) {
	var approvals []model.Approval
	if err := GetDB(ctx, r.db).
		Where("order_id = ? AND status = ?", orderID, model.ApprovalPending).
		Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}

func (r *approvalRepository) List(ctx context.Context, status string, approverID *uuid.UUID, page, limit int) ([]model.Approval, int64, error) {
	var approvals []model.Approval
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Approval{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if approverID != nil {
		query = query.Where("approver_id = ?", *approverID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Approver").
		Preload("Order").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&approvals).Error; err != nil {
		return nil, 0, err
	}

	return approvals, total, nil
}
