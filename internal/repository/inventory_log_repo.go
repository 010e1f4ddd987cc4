package repository

import (
	"context"
	"time"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryLogRepository interface {
	Append(tx *gorm.DB, entry *model.InventoryLog) error
	List(ctx context.Context, filter LogFilter) ([]model.InventoryLog, int64, error)
	FindInconsistent(ctx context.Context) ([]model.InventoryLog, error)
	LatestAfterQty(ctx context.Context) (map[uuid.UUID]int, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
}

// LogFilter narrows an inventory log listing. Zero values are ignored.
type LogFilter struct {
	ProductID  *uuid.UUID
	PurchaseID *uuid.UUID
	SaleID     *uuid.UUID
	ActorID    *uuid.UUID
	Action     ledger.Action
	From       *time.Time
	To         *time.Time
	Page       Page
}

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type inventoryLogRepo struct {
	db *gorm.DB
}

func NewInventoryLogRepo(db *gorm.DB) InventoryLogRepository {
	return &inventoryLogRepo{db}
}

// Append writes one entry inside the caller's transaction
func (r *inventoryLogRepo) Append(tx *gorm.DB, entry *model.InventoryLog) error {
	return tx.Omit("Product").Create(entry).Error
}

func (r *inventoryLogRepo) List(ctx context.Context, filter LogFilter) ([]model.InventoryLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryLog{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.PurchaseID != nil {
		q = q.Where("purchase_id = ?", *filter.PurchaseID)
	}
	if filter.SaleID != nil {
		q = q.Where("sale_id = ?", *filter.SaleID)
	}
	if filter.ActorID != nil {
		q = q.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.InventoryLog
	err := q.Scopes(filter.Page.Scope).Order("id DESC").Find(&logs).Error
	return logs, total, err
}

// FindInconsistent returns entries that break after = before + delta or go negative
func (r *inventoryLogRepo) FindInconsistent(ctx context.Context) ([]model.InventoryLog, error) {
	var logs []model.InventoryLog
	err := r.db.WithContext(ctx).
		Where("after_qty <> before_qty + delta OR before_qty < 0 OR after_qty < 0").
		Order("id ASC").
		Find(&logs).Error
	return logs, err
}

// LatestAfterQty maps each product with history to the quantity its newest entry left behind
func (r *inventoryLogRepo) LatestAfterQty(ctx context.Context) (map[uuid.UUID]int, error) {
	type row struct {
		ProductID uuid.UUID
		AfterQty  int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Table("inventory_logs AS l").
		Select("l.product_id, l.after_qty").
		Joins("JOIN (SELECT product_id, MAX(id) AS max_id FROM inventory_logs GROUP BY product_id) m ON l.id = m.max_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		out[r.ProductID] = r.AfterQty
	}
	return out, nil
}

func (r *inventoryLogRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	results := []StockMovementData{}

	// Aggregate log deltas per day
	rows, err := r.db.WithContext(ctx).Model(&model.InventoryLog{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN delta > 0 THEN delta ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN delta < 0 THEN -delta ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		// drivers hand DATE back either as text or as a timestamp
		if len(data.Date) > len("2006-01-02") {
			data.Date = data.Date[:len("2006-01-02")]
		}
		results = append(results, data)
	}

	return results, rows.Err()
}
