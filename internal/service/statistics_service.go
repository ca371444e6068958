package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
)

// StatisticsResponse aggregates workflow throughput for the staff dashboard.
type StatisticsResponse struct {
	OrdersByStatus     map[string]int64 `json:"orders_by_status"`
	OpenOrders         int64            `json:"open_orders"`
	CompletedOrders    int64            `json:"completed_orders"`
	PendingApprovals   int64            `json:"pending_approvals"`
	TotalOrderValue    string           `json:"total_order_value"`
	TimeRangeStartDate time.Time        `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time        `json:"time_range_end_date"`
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, start, end time.Time) (*StatisticsResponse, error)
}

type statisticsService struct {
	stats repository.StatisticsRepository
}

func NewStatisticsService(stats repository.StatisticsRepository) StatisticsService {
	return &statisticsService{stats: stats}
}

func (s *statisticsService) GetStatistics(ctx context.Context, start, end time.Time) (*StatisticsResponse, error) {
	counts, err := s.stats.CountOrdersByStatus(ctx, start, end)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int64, len(counts))
	var open, completed int64
	for _, c := range counts {
		byStatus[string(c.Status)] = c.Count
		if c.Status.IsTerminal() {
			if c.Status == model.StatusCompleted {
				completed += c.Count
			}
		} else {
			open += c.Count
		}
	}

	pending, err := s.stats.CountPendingApprovals(ctx)
	if err != nil {
		return nil, err
	}

	rawValue, err := s.stats.TotalOrderValue(ctx, start, end)
	if err != nil {
		return nil, err
	}
	value, err := decimal.NewFromString(rawValue)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order value total: %w", err)
	}

	return &StatisticsResponse{
		OrdersByStatus:     byStatus,
		OpenOrders:         open,
		CompletedOrders:    completed,
		PendingApprovals:   pending,
		TotalOrderValue:    value.StringFixed(2),
		TimeRangeStartDate: start,
		TimeRangeEndDate:   end,
	}, nil
}
