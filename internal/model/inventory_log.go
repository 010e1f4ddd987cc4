package model

import (
	"errors"
	"fmt"
	"time"

	"go-inventory-ledger/internal/ledger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrImmutableLog = errors.New("inventory log entries are immutable")

// InventoryLog is one append-only stock movement. ID is a monotonically increasing
// sequence so entries of one product read back in the order they were written.
type InventoryLog struct {
	ID         uint64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product      `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Action     ledger.Action `gorm:"type:varchar(40);not null;index" json:"action"`
	Delta      int           `gorm:"not null" json:"delta"`
	BeforeQty  int           `gorm:"not null" json:"before_qty"`
	AfterQty   int           `gorm:"not null" json:"after_qty"`
	ActorID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"actor_id"`
	ActorName  string        `gorm:"type:varchar(255)" json:"actor_name"`
	PurchaseID *uuid.UUID    `gorm:"type:uuid;index" json:"purchase_id,omitempty"`
	SaleID     *uuid.UUID    `gorm:"type:uuid;index" json:"sale_id,omitempty"`
	Note       string        `gorm:"type:text" json:"note,omitempty"`
	CreatedAt  time.Time     `gorm:"index" json:"created_at"`
}

// Consistent reports whether AfterQty = BeforeQty + Delta and nothing went negative
func (l *InventoryLog) Consistent() bool {
	return l.AfterQty == l.BeforeQty+l.Delta && l.BeforeQty >= 0 && l.AfterQty >= 0
}

func (l *InventoryLog) BeforeCreate(tx *gorm.DB) error {
	if !l.Action.Valid() {
		return fmt.Errorf("unknown inventory log action %q", l.Action)
	}
	if !l.Consistent() {
		return fmt.Errorf("inconsistent inventory log entry: before %d + delta %d != after %d", l.BeforeQty, l.Delta, l.AfterQty)
	}
	return nil
}

func (l *InventoryLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableLog
}

func (l *InventoryLog) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableLog
}
