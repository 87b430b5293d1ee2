package service

import (
	"context"
	"fmt"
	"time"

	"shopadmin/internal/repository"
)

// --- DTOs ---

type RevenueQuery struct {
	GroupBy string // day, week, or month
	Start   string // YYYY-MM-DD, optional
	End     string // YYYY-MM-DD, optional
}

type DashboardResponse struct {
	Counts      *repository.EntityCounts    `json:"counts"`
	TopProducts []repository.ProductRanking `json:"top_products"`
}

// --- Interface ---

type StatisticsService interface {
	Dashboard(ctx context.Context) (*DashboardResponse, error)
	Revenue(ctx context.Context, q RevenueQuery) ([]repository.RevenuePoint, error)
	TopProducts(ctx context.Context, start, end string, limit int) ([]repository.ProductRanking, error)
}

type statisticsService struct {
	statsRepo repository.StatisticsRepository
}

func NewStatisticsService(statsRepo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{statsRepo: statsRepo}
}

func (s *statisticsService) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	counts, err := s.statsRepo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load counts: %w", err)
	}

	end := time.Now()
	start := end.AddDate(0, -1, 0)
	top, err := s.statsRepo.TopProducts(ctx, start, end, 5)
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}

	return &DashboardResponse{Counts: counts, TopProducts: top}, nil
}

func (s *statisticsService) Revenue(ctx context.Context, q RevenueQuery) ([]repository.RevenuePoint, error) {
	groupBy := q.GroupBy
	switch groupBy {
	case "":
		groupBy = "day"
	case "day", "week", "month":
	default:
		return nil, fmt.Errorf("invalid group_by %q", q.GroupBy)
	}

	start, end, err := parseRange(q.Start, q.End)
	if err != nil {
		return nil, err
	}
	return s.statsRepo.RevenueSeries(ctx, groupBy, start, end)
}

func (s *statisticsService) TopProducts(ctx context.Context, startStr, endStr string, limit int) ([]repository.ProductRanking, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	start, end, err := parseRange(startStr, endStr)
	if err != nil {
		return nil, err
	}
	return s.statsRepo.TopProducts(ctx, start, end, limit)
}

// parseRange defaults to the trailing 30 days. The end date is inclusive.
func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	end := time.Now()
	if endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", endStr)
		}
		end = parsed.AddDate(0, 0, 1).Add(-time.Second)
	}

	start := end.AddDate(0, 0, -30)
	if startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", startStr)
		}
		start = parsed
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date after end date")
	}
	return start, end, nil
}
