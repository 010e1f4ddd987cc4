package service

import (
	"errors"
	"fmt"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// logRef ties a log entry to the document that caused it
type logRef struct {
	PurchaseID *uuid.UUID
	SaleID     *uuid.UUID
	Note       string
}

// stockLedger applies stock movements and writes their log entries. before and after
// are read inside the transaction right after the write, so each entry reflects the
// product's real sequential state.
type stockLedger struct {
	products repository.ProductRepository
	logs     repository.InventoryLogRepository
}

// lockProducts row-locks every id (ascending) and fails NotFound for unknown products.
// Deleted products are returned; callers decide whether the action may touch them.
func (l *stockLedger) lockProducts(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	locked, err := l.products.LockForUpdate(tx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return nil, apperror.NotFound("product", id.String())
		}
	}
	return locked, nil
}

// requireLive rejects forward mutations against soft-deleted products
func requireLive(p *model.Product) error {
	if p.IsDeleted() {
		return apperror.Conflict(fmt.Sprintf("product %s is deleted", p.Label())).WithDetail("product_id", p.ID.String())
	}
	return nil
}

// receive adds stock at a new average cost
func (l *stockLedger) receive(uow *UnitOfWork, p *model.Product, qty int, avgCost, unitCost decimal.Decimal, action ledger.Action, ref logRef) error {
	after, err := l.products.ApplyReceipt(uow.Tx, p.ID, qty, avgCost, unitCost, uow.Actor.AuditName())
	if err != nil {
		return err
	}
	p.Stock, p.AvgCost, p.LastCost = after, avgCost, unitCost
	return l.append(uow, p.ID, action, qty, after, ref)
}

func (l *stockLedger) increase(uow *UnitOfWork, p *model.Product, qty int, action ledger.Action, ref logRef) error {
	after, err := l.products.IncrementStock(uow.Tx, p.ID, qty, uow.Actor.AuditName())
	if err != nil {
		return err
	}
	p.Stock = after
	return l.append(uow, p.ID, action, qty, after, ref)
}

// decrease is the conditional decrement; it fails InsufficientStock without writing
func (l *stockLedger) decrease(uow *UnitOfWork, p *model.Product, qty int, action ledger.Action, ref logRef) error {
	after, ok, err := l.products.DecrementStockIfAvailable(uow.Tx, p.ID, qty, uow.Actor.AuditName())
	if err != nil {
		return err
	}
	if !ok {
		available, err := l.products.CurrentStock(uow.Tx, p.ID)
		if err != nil && !errors.Is(err, repository.ErrProductGone) {
			return err
		}
		return apperror.InsufficientStock(p.Label(), qty, available)
	}
	p.Stock = after
	return l.append(uow, p.ID, action, -qty, after, ref)
}

func (l *stockLedger) append(uow *UnitOfWork, productID uuid.UUID, action ledger.Action, delta, after int, ref logRef) error {
	entry := &model.InventoryLog{
		ProductID:  productID,
		Action:     action,
		Delta:      delta,
		BeforeQty:  after - delta,
		AfterQty:   after,
		ActorID:    uow.Actor.ID,
		ActorName:  uow.Actor.Name,
		PurchaseID: ref.PurchaseID,
		SaleID:     ref.SaleID,
		Note:       ref.Note,
	}
	if err := l.logs.Append(uow.Tx, entry); err != nil {
		return err
	}
	uow.entries = append(uow.entries, entry)
	return nil
}

// notFound turns a missing row into a typed NotFound, passing other errors through
func notFound(err error, resource string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(resource, id.String())
	}
	return err
}
