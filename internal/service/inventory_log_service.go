package service

import (
	"context"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
)

type InventoryLogService interface {
	List(ctx context.Context, filter repository.LogFilter) ([]model.InventoryLog, int64, error)
	Verify(ctx context.Context) (*VerifyReport, error)
}

// VerifyReport lists every place where the log and product stock disagree
type VerifyReport struct {
	OK                  bool                 `json:"ok"`
	CheckedProducts     int                  `json:"checked_products"`
	InconsistentEntries []model.InventoryLog `json:"inconsistent_entries"`
	StockMismatches     []StockMismatch      `json:"stock_mismatches"`
}

// StockMismatch is a product whose stock differs from the after-quantity of its newest entry
type StockMismatch struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Stock     int       `json:"stock"`
	LoggedQty int       `json:"logged_qty"`
	Deleted   bool      `json:"deleted"`
}

type inventoryLogService struct {
	logRepo     repository.InventoryLogRepository
	productRepo repository.ProductRepository
}

func NewInventoryLogService(logRepo repository.InventoryLogRepository, productRepo repository.ProductRepository) InventoryLogService {
	return &inventoryLogService{logRepo: logRepo, productRepo: productRepo}
}

func (s *inventoryLogService) List(ctx context.Context, filter repository.LogFilter) ([]model.InventoryLog, int64, error) {
	if filter.Action != "" && !filter.Action.Valid() {
		return nil, 0, apperror.Validation("unknown inventory log action").WithDetail("action", string(filter.Action))
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, apperror.Validation("'to' must not be before 'from'")
	}
	logs, total, err := s.logRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return logs, total, nil
}

// Verify checks after = before + delta on every entry and that each product's stock
// equals what its history says. Products start at zero, so one without history must
// still be at zero.
func (s *inventoryLogService) Verify(ctx context.Context) (*VerifyReport, error) {
	bad, err := s.logRepo.FindInconsistent(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	latest, err := s.logRepo.LatestAfterQty(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	products, err := s.productRepo.FindAllIncludingDeleted(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	report := &VerifyReport{
		CheckedProducts:     len(products),
		InconsistentEntries: bad,
		StockMismatches:     []StockMismatch{},
	}
	if report.InconsistentEntries == nil {
		report.InconsistentEntries = []model.InventoryLog{}
	}
	for _, p := range products {
		logged := latest[p.ID]
		if p.Stock != logged {
			report.StockMismatches = append(report.StockMismatches, StockMismatch{
				ProductID: p.ID,
				SKU:       p.SKU,
				Stock:     p.Stock,
				LoggedQty: logged,
				Deleted:   p.IsDeleted(),
			})
		}
	}
	report.OK = len(report.InconsistentEntries) == 0 && len(report.StockMismatches) == 0
	return report, nil
}
