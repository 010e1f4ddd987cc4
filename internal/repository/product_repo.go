package repository

import (
	"context"
	"errors"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProductGone is returned when a ledger write matches no product row at all
var ErrProductGone = errors.New("product row not found")

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindAllIncludingDeleted(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	UpdateCatalog(ctx context.Context, product *model.Product) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error
	SetSupplier(ctx context.Context, id uuid.UUID, supplierID *uuid.UUID, updatedBy string) error
	Stats(ctx context.Context, lowStockThreshold int) (*DashboardStats, error)

	// Ledger writes. They receive the unit-of-work transaction and ignore the
	// soft-delete scope; the caller decides which actions may touch deleted products.
	LockForUpdate(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	ApplyReceipt(tx *gorm.DB, id uuid.UUID, quantity int, avgCost, lastCost decimal.Decimal, updatedBy string) (int, error)
	IncrementStock(tx *gorm.DB, id uuid.UUID, quantity int, updatedBy string) (int, error)
	DecrementStockIfAvailable(tx *gorm.DB, id uuid.UUID, quantity int, updatedBy string) (int, bool, error)
	BindSupplier(tx *gorm.DB, id uuid.UUID, supplierID uuid.UUID, updatedBy string) (bool, error)
	CurrentStock(tx *gorm.DB, id uuid.UUID) (int, error)
}

// DashboardStats untuk overview stats
type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalUnits     int64           `json:"total_units"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Preload("Supplier").Order("sku ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindAllIncludingDeleted(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Unscoped().Order("sku ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Supplier").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateCatalog writes the descriptive columns only; stock and cost belong to the ledger
func (r *productRepo) UpdateCatalog(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"sku":        product.SKU,
			"name":       product.Name,
			"unit":       product.Unit,
			"price":      product.Price,
			"updated_by": product.UpdatedBy,
		}).Error
}

func (r *productRepo) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"deleted_at": time.Now(),
		"deleted_by": deletedBy,
	}).Error
}

func (r *productRepo) SetSupplier(ctx context.Context, id uuid.UUID, supplierID *uuid.UUID, updatedBy string) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"supplier_id": supplierID,
		"updated_by":  updatedBy,
	}).Error
}

func (r *productRepo) Stats(ctx context.Context, lowStockThreshold int) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("stock < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Select("COALESCE(SUM(stock), 0)").Scan(&stats.TotalUnits).Error; err != nil {
		return nil, err
	}

	// Valuation at average cost
	if err := db.Model(&model.Product{}).Select("COALESCE(SUM(stock * avg_cost), 0)").Scan(&stats.TotalValuation).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// LockForUpdate loads and row-locks the products in ascending id order, so two
// multi-product operations always acquire their locks in the same order.
func (r *productRepo) LockForUpdate(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	var products []model.Product
	err := tx.Unscoped().
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

// ApplyReceipt adds received stock and stores the recomputed costs; returns the new quantity
func (r *productRepo) ApplyReceipt(tx *gorm.DB, id uuid.UUID, quantity int, avgCost, lastCost decimal.Decimal, updatedBy string) (int, error) {
	res := tx.Unscoped().Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", quantity),
			"avg_cost":   avgCost,
			"last_cost":  lastCost,
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrProductGone
	}
	return r.CurrentStock(tx, id)
}

func (r *productRepo) IncrementStock(tx *gorm.DB, id uuid.UUID, quantity int, updatedBy string) (int, error) {
	res := tx.Unscoped().Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", quantity),
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrProductGone
	}
	return r.CurrentStock(tx, id)
}

// DecrementStockIfAvailable is the single conditional write behind every stock
// decrease: it only matches when stock >= quantity. ok is false when it did not match.
func (r *productRepo) DecrementStockIfAvailable(tx *gorm.DB, id uuid.UUID, quantity int, updatedBy string) (int, bool, error) {
	res := tx.Unscoped().Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	after, err := r.CurrentStock(tx, id)
	return after, err == nil, err
}

// BindSupplier sets the supplier only while it is still unset
func (r *productRepo) BindSupplier(tx *gorm.DB, id uuid.UUID, supplierID uuid.UUID, updatedBy string) (bool, error) {
	res := tx.Unscoped().Model(&model.Product{}).
		Where("id = ? AND supplier_id IS NULL", id).
		Updates(map[string]interface{}{
			"supplier_id": supplierID,
			"updated_by":  updatedBy,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepo) CurrentStock(tx *gorm.DB, id uuid.UUID) (int, error) {
	var stocks []int
	if err := tx.Unscoped().Model(&model.Product{}).Where("id = ?", id).Pluck("stock", &stocks).Error; err != nil {
		return 0, err
	}
	if len(stocks) == 0 {
		return 0, ErrProductGone
	}
	return stocks[0], nil
}
