package model

import (
	"time"

	"go-inventory-ledger/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Purchase struct {
	BaseModel
	Number     string                `gorm:"type:varchar(40);uniqueIndex;not null" json:"number"`
	SupplierID *uuid.UUID            `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Supplier   *Supplier             `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Status     ledger.PurchaseStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Note       string                `gorm:"type:text" json:"note"`
	Items      []PurchaseItem        `gorm:"constraint:OnDelete:CASCADE" json:"items"`

	SubTotal   decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"sub_total"`
	Discount   decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"discount"`
	Tax        decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"tax"`
	GrandTotal decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"grand_total"`

	PostedAt     *time.Time `json:"posted_at,omitempty"`
	PostedBy     string     `json:"posted_by,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy  string     `json:"cancelled_by,omitempty"`
	CancelReason string     `gorm:"type:text" json:"cancel_reason,omitempty"`
}

// PurchaseItem is one ordered line; LineTotal = Quantity × UnitCost
type PurchaseItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_id"`
	Line       int             `gorm:"not null" json:"line"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"unit_cost"`
	LineTotal  decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"line_total"`
}

func (i *PurchaseItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Recalculate fills line numbers, line totals and the purchase totals from Items
func (p *Purchase) Recalculate() {
	sub := decimal.Zero
	for i := range p.Items {
		p.Items[i].Line = i + 1
		p.Items[i].LineTotal = ledger.LineTotal(p.Items[i].Quantity, p.Items[i].UnitCost)
		sub = sub.Add(p.Items[i].LineTotal)
	}
	p.SubTotal = sub
	p.GrandTotal = ledger.GrandTotal(sub, p.Discount, p.Tax)
}

// ProductIDs returns the distinct products referenced by the items, in item order
func (p *Purchase) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(p.Items))
	ids := make([]uuid.UUID, 0, len(p.Items))
	for _, it := range p.Items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}
