package repository

import (
	"context"
	"time"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository interface {
	Create(tx *gorm.DB, purchase *model.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Purchase, error)
	UpdateDraft(tx *gorm.DB, purchase *model.Purchase) error
	TransitionStatus(tx *gorm.DB, id uuid.UUID, from, to ledger.PurchaseStatus, fields map[string]interface{}) (bool, error)
	HardDelete(tx *gorm.DB, id uuid.UUID) error
	NumberExists(tx *gorm.DB, number string) (bool, error)
	List(ctx context.Context, filter PurchaseFilter) ([]model.Purchase, int64, error)
}

type PurchaseFilter struct {
	Status     ledger.PurchaseStatus
	SupplierID *uuid.UUID
	Page       Page
}

type purchaseRepo struct {
	db *gorm.DB
}

func NewPurchaseRepo(db *gorm.DB) PurchaseRepository {
	return &purchaseRepo{db}
}

func (r *purchaseRepo) Create(tx *gorm.DB, purchase *model.Purchase) error {
	return tx.Omit("Supplier").Create(purchase).Error
}

func (r *purchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line ASC") }).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&purchase, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindForUpdate locks the purchase header; items are read after the lock is held
func (r *purchaseRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("purchase_id = ?", id).Order("line ASC").Find(&purchase.Items).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// UpdateDraft rewrites the header and replaces every item
func (r *purchaseRepo) UpdateDraft(tx *gorm.DB, purchase *model.Purchase) error {
	err := tx.Model(&model.Purchase{}).Where("id = ?", purchase.ID).Updates(map[string]interface{}{
		"supplier_id": purchase.SupplierID,
		"note":        purchase.Note,
		"sub_total":   purchase.SubTotal,
		"discount":    purchase.Discount,
		"tax":         purchase.Tax,
		"grand_total": purchase.GrandTotal,
		"updated_by":  purchase.UpdatedBy,
	}).Error
	if err != nil {
		return err
	}

	if err := tx.Where("purchase_id = ?", purchase.ID).Delete(&model.PurchaseItem{}).Error; err != nil {
		return err
	}
	if len(purchase.Items) == 0 {
		return nil
	}
	for i := range purchase.Items {
		purchase.Items[i].ID = uuid.Nil
		purchase.Items[i].PurchaseID = purchase.ID
	}
	return tx.Omit("Product").Create(&purchase.Items).Error
}

// TransitionStatus is a compare-and-swap on status; false means the row was not in `from`
func (r *purchaseRepo) TransitionStatus(tx *gorm.DB, id uuid.UUID, from, to ledger.PurchaseStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	res := tx.Model(&model.Purchase{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *purchaseRepo) HardDelete(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("purchase_id = ?", id).Delete(&model.PurchaseItem{}).Error; err != nil {
		return err
	}
	return tx.Unscoped().Delete(&model.Purchase{}, "id = ?", id).Error
}

func (r *purchaseRepo) NumberExists(tx *gorm.DB, number string) (bool, error) {
	var count int64
	err := tx.Unscoped().Model(&model.Purchase{}).Where("number = ?", number).Count(&count).Error
	return count > 0, err
}

func (r *purchaseRepo) List(ctx context.Context, filter PurchaseFilter) ([]model.Purchase, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Purchase{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != nil {
		q = q.Where("supplier_id = ?", *filter.SupplierID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var purchases []model.Purchase
	err := q.Scopes(filter.Page.Scope).
		Preload("Supplier").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line ASC") }).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, total, err
}

// PostedFields and CancelledFields are the extra columns written with each transition
func PostedFields(at time.Time, by string) map[string]interface{} {
	return map[string]interface{}{"posted_at": at, "posted_by": by, "updated_by": by}
}

func CancelledFields(at time.Time, by, reason string) map[string]interface{} {
	return map[string]interface{}{"cancelled_at": at, "cancelled_by": by, "cancel_reason": reason, "updated_by": by}
}
