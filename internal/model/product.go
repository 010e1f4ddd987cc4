package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the ledger state of one stock keeping unit. Stock, AvgCost, LastCost and
// SupplierID are written by the ledger only; catalogue edits never touch them.
type Product struct {
	BaseModel
	SKU   string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Name  string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit  string          `gorm:"type:varchar(20)" json:"unit"`
	Price decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"price"`

	Stock    int             `gorm:"not null;default:0;check:chk_products_stock_non_negative,stock >= 0" json:"stock"`
	AvgCost  decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"avg_cost"`
	LastCost decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"last_cost"`

	SupplierID *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Supplier   *Supplier  `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// Label names the product in error messages
func (p *Product) Label() string {
	if p.SKU != "" {
		return p.SKU + " (" + p.Name + ")"
	}
	return p.ID.String()
}

// StockValue is stock valued at average cost
func (p *Product) StockValue() decimal.Decimal {
	return p.AvgCost.Mul(decimal.NewFromInt(int64(p.Stock)))
}
