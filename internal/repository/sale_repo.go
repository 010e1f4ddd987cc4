package repository

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	Create(tx *gorm.DB, sale *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	Replace(tx *gorm.DB, sale *model.Sale) error
	SoftDelete(tx *gorm.DB, id uuid.UUID, deletedBy string) error
	NumberExists(tx *gorm.DB, number string) (bool, error)
	List(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error)
}

type SaleFilter struct {
	From *time.Time
	To   *time.Time
	Page Page
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return tx.Create(sale).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line ASC") }).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindForUpdate locks a live sale and loads its items
func (r *saleRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("sale_id = ?", id).Order("line ASC").Find(&sale.Items).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// Replace rewrites the header totals and swaps in the new item set
func (r *saleRepo) Replace(tx *gorm.DB, sale *model.Sale) error {
	err := tx.Model(&model.Sale{}).Where("id = ?", sale.ID).Updates(map[string]interface{}{
		"customer_name":     sale.CustomerName,
		"payment_method":    sale.PaymentMethod,
		"total_amount":      sale.TotalAmount,
		"discount":          sale.Discount,
		"discounted_amount": sale.DiscountedAmount,
		"updated_by":        sale.UpdatedBy,
	}).Error
	if err != nil {
		return err
	}

	if err := tx.Where("sale_id = ?", sale.ID).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	if len(sale.Items) == 0 {
		return nil
	}
	for i := range sale.Items {
		sale.Items[i].ID = uuid.Nil
		sale.Items[i].SaleID = sale.ID
	}
	return tx.Omit("Product").Create(&sale.Items).Error
}

// SoftDelete hides the sale; its items stay for the audit trail
func (r *saleRepo) SoftDelete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Updates(map[string]interface{}{
		"deleted_at": time.Now(),
		"deleted_by": deletedBy,
	}).Error
}

func (r *saleRepo) NumberExists(tx *gorm.DB, number string) (bool, error) {
	var count int64
	err := tx.Unscoped().Model(&model.Sale{}).Where("number = ?", number).Count(&count).Error
	return count > 0, err
}

func (r *saleRepo) List(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{})
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

	var sales []model.Sale
	err := q.Scopes(filter.Page.Scope).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line ASC") }).
		Order("created_at DESC").
		Find(&sales).Error
	return sales, total, err
}
