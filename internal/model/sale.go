package model

import (
	"go-inventory-ledger/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale lines keep the unit price captured when the line was written
type Sale struct {
	BaseModel
	Number        string     `gorm:"type:varchar(40);uniqueIndex;not null" json:"number"`
	CustomerName  string     `gorm:"type:varchar(255)" json:"customer_name"`
	PaymentMethod string     `gorm:"type:varchar(20)" json:"payment_method"`
	Items         []SaleItem `json:"items"`

	TotalAmount      decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"total_amount"`
	Discount         decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0" json:"discount"` // percent
	DiscountedAmount decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"discounted_amount"`
}

type SaleItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SaleID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	Line       int             `gorm:"not null" json:"line"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"total_price"`
}

func (i *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Recalculate fills line numbers and totals from the frozen unit prices
func (s *Sale) Recalculate() {
	total := decimal.Zero
	for i := range s.Items {
		s.Items[i].Line = i + 1
		s.Items[i].TotalPrice = ledger.LineTotal(s.Items[i].Quantity, s.Items[i].UnitPrice)
		total = total.Add(s.Items[i].TotalPrice)
	}
	s.TotalAmount = total
	s.DiscountedAmount = ledger.DiscountedAmount(total, s.Discount)
}
