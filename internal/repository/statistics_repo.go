package repository

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

// StatusCount is one row of the per-status order breakdown.
type StatusCount struct {
	Status model.OrderStatus `json:"status"`
	Count  int64             `json:"count"`
}

type StatisticsRepository interface {
	CountOrdersByStatus(ctx context.Context, start, end time.Time) ([]StatusCount, error)
	CountPendingApprovals(ctx context.Context) (int64, error)
	TotalOrderValue(ctx context.Context, start, end time.Time) (string, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountOrdersByStatus(ctx context.Context, start, end time.Time) ([]StatusCount, error) {
	var counts []StatusCount
	if err := GetDB(ctx, r.db).Table("orders").
		Select("status, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	return counts, nil
}

func (r *statisticsRepository) CountPendingApprovals(ctx context.Context) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Approval{}).
		Where("status = ?", model.ApprovalPending).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count pending approvals: %w", err)
	}
	return count, nil
}

// TotalOrderValue sums quantity * unit_price over non-rejected, non-cancelled
// orders in the range. Returned as text so the caller can parse it into a
// decimal without a float round trip.
func (r *statisticsRepository) TotalOrderValue(ctx context.Context, start, end time.Time) (string, error) {
	var result struct {
		Value string
	}
	if err := GetDB(ctx, r.db).Table("order_items").
		Select("COALESCE(CAST(SUM(order_items.quantity * order_items.unit_price) AS TEXT), '0') as value").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status NOT IN ? AND orders.created_at >= ? AND orders.created_at <= ?",
			[]model.OrderStatus{model.StatusRejected, model.StatusCancelled}, start, end).
		Scan(&result).Error; err != nil {
		return "", fmt.Errorf("failed to sum order value: %w", err)
	}
	return result.Value, nil
}
