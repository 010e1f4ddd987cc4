package service

import (
	"context"
	"time"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"
)

const maxMovementDays = 366

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	productRepo       repository.ProductRepository
	logRepo           repository.InventoryLogRepository
	lowStockThreshold int
	now               func() time.Time
}

func NewDashboardService(productRepo repository.ProductRepository, logRepo repository.InventoryLogRepository, lowStockThreshold int) DashboardService {
	return &dashboardService{
		productRepo:       productRepo,
		logRepo:           logRepo,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days < 1 || days > maxMovementDays {
		return nil, apperror.Validation("days must be between 1 and 366")
	}
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	data, err := s.logRepo.GetStockMovement(ctx, startDate, endDate)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return data, nil
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	stats, err := s.productRepo.Stats(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return stats, nil
}
