package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PurchaseService interface {
	CreateDraft(ctx context.Context, actor model.Actor, req *PurchaseRequest) (*model.Purchase, error)
	UpdateDraft(ctx context.Context, actor model.Actor, id uuid.UUID, req *PurchaseRequest) (*model.Purchase, error)
	DeleteDraft(ctx context.Context, actor model.Actor, id uuid.UUID) error
	Post(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Purchase, error)
	Cancel(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.Purchase, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	List(ctx context.Context, filter repository.PurchaseFilter) ([]model.Purchase, int64, error)
}

type purchaseService struct {
	ledger    Ledger
	runner    *TxRunner
	stock     *stockLedger
	numbers   *numberer
	purchases repository.PurchaseRepository
	suppliers repository.SupplierRepository
}

func NewPurchaseService(l Ledger, purchases repository.PurchaseRepository, suppliers repository.SupplierRepository) PurchaseService {
	return &purchaseService{
		ledger: l,
		runner: l.runner(),
		stock:  l.stock(),
		numbers: &numberer{
			prefix: l.Config.PurchaseNumberPrefix,
			seq:    l.Sequence,
			loc:    l.Config.Location(),
			now:    l.clock(),
			exists: purchases.NumberExists,
		},
		purchases: purchases,
		suppliers: suppliers,
	}
}

func (s *purchaseService) CreateDraft(ctx context.Context, actor model.Actor, req *PurchaseRequest) (*model.Purchase, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.checkSupplier(ctx, req.SupplierID); err != nil {
		return nil, err
	}

	purchase := &model.Purchase{Status: ledger.PurchaseDraft}
	applyPurchaseRequest(purchase, req)
	if purchase.GrandTotal.IsNegative() {
		return nil, apperror.Validation("discount exceeds the purchase total")
	}
	purchase.Stamp(actor.AuditName())

	err := s.runner.Run(ctx, actor, func(uow *UnitOfWork) error {
		locked, err := s.stock.lockProducts(uow.Tx, purchase.ProductIDs())
		if err != nil {
			return err
		}
		for _, p := range locked {
			if err := requireLive(p); err != nil {
				return err
			}
		}
		if err := s.bindSuppliers(uow, purchase, locked); err != nil {
			return err
		}

		number, err := s.numbers.next(ctx, uow.Tx)
		if err != nil {
			return err
		}
		purchase.Number = number
		return s.purchases.Create(uow.Tx, purchase)
	})
	observe(ctx, "purchase.create", actor, err)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("purchase draft created",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("number", purchase.Number),
		zap.Int("lines", len(purchase.Items)),
	)
	return s.GetByID(ctx, purchase.ID)
}

func (s *purchaseService) UpdateDraft(ctx context.Context, actor model.Actor, id uuid.UUID, req *PurchaseRequest) (*model.Purchase, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.checkSupplier(ctx, req.SupplierID); err != nil {
		return nil, err
	}

	err := s.runner.Run(ctx, actor, func(uow *UnitOfWork) error {
		purchase, err := s.purchases.FindForUpdate(uow.Tx, id)
		if err != nil {
			return notFound(err, "purchase", id)
		}
		if !purchase.Status.Editable() {
			return apperror.Conflict("only draft purchases can be updated").WithDetail("status", string(purchase.Status))
		}

		applyPurchaseRequest(purchase, req)
		if purchase.GrandTotal.IsNegative() {
			return apperror.Validation("discount exceeds the purchase total")
		}
		purchase.UpdatedBy = actor.AuditName()

		locked, err := s.stock.lockProducts(uow.Tx, purchase.ProductIDs())
		if err != nil {
			return err
		}
		for _, p := range locked {
			if err := requireLive(p); err != nil {
				return err
			}
		}
		if err := s.bindSuppliers(uow, purchase, locked); err != nil {
			return err
		}
		return s.purchases.UpdateDraft(uow.Tx, purchase)
	})
	observe(ctx, "purchase.update", actor, err, zap.String("purchase_id", id.String()))
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *purchaseService) DeleteDraft(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	err := s.runner.Run(ctx, actor, func(uow *UnitOfWork) error {
		purchase, err := s.purchases.FindForUpdate(uow.Tx, id)
		if err != nil {
			return notFound(err, "purchase", id)
		}
		if !purchase.Status.Editable() {
			return apperror.Conflict("only draft purchases can be deleted").WithDetail("status", string(purchase.Status))
		}
		return s.purchases.HardDelete(uow.Tx, id)
	})
	observe(ctx, "purchase.delete", actor, err, zap.String("purchase_id", id.String()))
	return err
}

// Post receives every line into stock, recomputing average cost per line in item
// order, and moves the purchase to posted. All of it commits together or not at all.
func (s *purchaseService) Post(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Purchase, error) {
	ctx, span := tracer.Start(ctx, "PurchaseService.Post", trace.WithAttributes(
		attribute.String("purchase.id", id.String()),
		attribute.String("actor.id", actor.ID.String()),
	))
	defer span.End()

	var (
		purchase *model.Purchase
		locked   map[uuid.UUID]*model.Product
	)
	err := s.ledger.withLock(ctx, "purchase:"+id.String(), "purchase is being processed", func() error {
		return s.runner.Run(ctx, actor, func(uow *UnitOfWork) error {
			var err error
			purchase, err = s.purchases.FindForUpdate(uow.Tx, id)
			if err != nil {
				return notFound(err, "purchase", id)
			}
			if !ledger.CanTransition(purchase.Status, ledger.PurchasePosted) {
				return apperror.Conflict("only draft purchases can be posted").WithDetail("status", string(purchase.Status))
			}
			if len(purchase.Items) == 0 {
				return apperror.Unprocessable("purchase has no items")
			}

			locked, err = s.stock.lockProducts(uow.Tx, purchase.ProductIDs())
			if err != nil {
				return err
			}
			for _, p := range locked {
				if err := requireLive(p); err != nil {
					return err
				}
			}
			if err := s.bindSuppliers(uow, purchase, locked); err != nil {
				return err
			}

			ref := logRef{PurchaseID: &purchase.ID, Note: purchase.Number}
			for _, item := range purchase.Items {
				p := locked[item.ProductID]
				avg := ledger.WeightedAverageCost(p.Stock, p.AvgCost, item.Quantity, item.UnitCost)
				if err := s.stock.receive(uow, p, item.Quantity, avg, item.UnitCost, ledger.ActionPurchasePost, ref); err != nil {
					return err
				}
			}

			now := s.ledger.clock()()
			ok, err := s.purchases.TransitionStatus(uow.Tx, id, ledger.PurchaseDraft, ledger.PurchasePosted,
				repository.PostedFields(now, actor.AuditName()))
			if err != nil {
				return err
			}
			if !ok {
				return apperror.Conflict("only draft purchases can be posted")
			}

			uow.AfterCommit(func() {
				s.ledger.publish(ws.Event{
					Type:    "stock_update",
					Action:  string(ledger.ActionPurchasePost),
					Data:    map[string]interface{}{"purchase_id": purchase.ID, "number": purchase.Number, "products": productSnapshot(locked)},
					User:    actor,
					Message: fmt.Sprintf("%s posted purchase %s", actor.Name, purchase.Number),
				})
			})
			return nil
		})
	})
	observe(ctx, "purchase.post", actor, err, zap.String("purchase_id", id.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.FromContext(ctx).Info("purchase posted",
		zap.String("purchase_id", id.String()),
		zap.String("number", purchase.Number),
		zap.String("actor_id", actor.ID.String()),
		zap.Int("lines", len(purchase.Items)),
	)
	return s.GetByID(ctx, id)
}

// Cancel reverses a posted purchase. Every product is checked before anything is
// written; average cost is left as it is.
func (s *purchaseService) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.Purchase, error) {
	ctx, span := tracer.Start(ctx, "PurchaseService.Cancel", trace.WithAttributes(
		attribute.String("purchase.id", id.String()),
		attribute.String("actor.id", actor.ID.String()),
	))
	defer span.End()

	if !actor.IsAdmin() {
		err := apperror.Forbidden("only administrators can cancel purchases")
		observe(ctx, "purchase.cancel", actor, err, zap.String("purchase_id", id.String()))
		return nil, err
	}
	if err := validate(&CancelPurchaseRequest{Reason: reason}); err != nil {
		return nil, err
	}

	var (
		purchase *model.Purchase
		locked   map[uuid.UUID]*model.Product
	)
	err := s.ledger.withLock(ctx, "purchase:"+id.String(), "purchase is being processed", func() error {
		return s.runner.Run(ctx, actor, func(uow *UnitOfWork) error {
			var err error
			purchase, err = s.purchases.FindForUpdate(uow.Tx, id)
			if err != nil {
				return notFound(err, "purchase", id)
			}
			if !ledger.CanTransition(purchase.Status, ledger.PurchaseCancelled) {
				return apperror.Conflict("only posted purchases can be cancelled").WithDetail("status", string(purchase.Status))
			}

			locked, err = s.stock.lockProducts(uow.Tx, purchase.ProductIDs())
			if err != nil {
				return err
			}

			need := make(map[uuid.UUID]int, len(locked))
			for _, item := range purchase.Items {
				need[item.ProductID] += item.Quantity
			}
			for _, pid := range purchase.ProductIDs() {
				if p := locked[pid]; p.Stock < need[pid] {
					return apperror.Unprocessable(fmt.Sprintf("cannot cancel: stock of %s already consumed", p.Label())).
						WithDetails(map[string]string{
							"product":   p.Label(),
							"requested": strconv.Itoa(need[pid]),
							"available": strconv.Itoa(p.Stock),
						})
				}
			}

			ref := logRef{PurchaseID: &purchase.ID, Note: purchase.Number}
			for _, item := range purchase.Items {
				if err := s.stock.decrease(uow, locked[item.ProductID], item.Quantity, ledger.ActionPurchaseCancel, ref); err != nil {
					return err
				}
			}

			now := s.ledger.clock()()
			ok, err := s.purchases.TransitionStatus(uow.Tx, id, ledger.PurchasePosted, ledger.PurchaseCancelled,
				repository.CancelledFields(now, actor.AuditName(), reason))
			if err != nil {
				return err
			}
			if !ok {
				return apperror.Conflict("only posted purchases can be cancelled")
			}

			uow.AfterCommit(func() {
				s.ledger.publish(ws.Event{
					Type:    "stock_update",
					Action:  string(ledger.ActionPurchaseCancel),
					Data:    map[string]interface{}{"purchase_id": purchase.ID, "number": purchase.Number, "products": productSnapshot(locked)},
					User:    actor,
					Message: fmt.Sprintf("%s cancelled purchase %s", actor.Name, purchase.Number),
				})
			})
			return nil
		})
	})
	observe(ctx, "purchase.cancel", actor, err, zap.String("purchase_id", id.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.FromContext(ctx).Info("purchase cancelled",
		zap.String("purchase_id", id.String()),
		zap.String("number", purchase.Number),
		zap.String("actor_id", actor.ID.String()),
		zap.String("reason", reason),
	)
	return s.GetByID(ctx, id)
}

func (s *purchaseService) GetByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	purchase, err := s.purchases.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("purchase", id.String())
		}
		return nil, apperror.Internal(err)
	}
	return purchase, nil
}

func (s *purchaseService) List(ctx context.Context, filter repository.PurchaseFilter) ([]model.Purchase, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperror.Validation("unknown purchase status").WithDetail("status", string(filter.Status))
	}
	purchases, total, err := s.purchases.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return purchases, total, nil
}

func (s *purchaseService) checkSupplier(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.suppliers.FindByID(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("supplier", id.String())
		}
		return apperror.Internal(err)
	}
	return nil
}

// bindSuppliers enforces that a product only ever comes from one supplier. Unbound
// products are bound to the purchase's supplier; a purchase without a supplier
// neither binds nor conflicts.
func (s *purchaseService) bindSuppliers(uow *UnitOfWork, purchase *model.Purchase, locked map[uuid.UUID]*model.Product) error {
	if purchase.SupplierID == nil {
		return nil
	}
	for _, pid := range purchase.ProductIDs() {
		p := locked[pid]
		bind, err := ledger.CheckSupplierBinding(p.SupplierID, purchase.SupplierID)
		if err != nil {
			return supplierMismatch(p, purchase.SupplierID)
		}
		if !bind {
			continue
		}

		bound, err := s.ledger.Products.BindSupplier(uow.Tx, p.ID, *purchase.SupplierID, uow.Actor.AuditName())
		if err != nil {
			return err
		}
		if !bound {
			// someone bound it first; check against the winner
			fresh, err := s.ledger.Products.LockForUpdate(uow.Tx, []uuid.UUID{p.ID})
			if err != nil {
				return err
			}
			if current, ok := fresh[p.ID]; ok {
				p.SupplierID = current.SupplierID
			}
			if _, err := ledger.CheckSupplierBinding(p.SupplierID, purchase.SupplierID); err != nil {
				return supplierMismatch(p, purchase.SupplierID)
			}
			continue
		}
		supplierID := *purchase.SupplierID
		p.SupplierID = &supplierID
	}
	return nil
}

func supplierMismatch(p *model.Product, purchaseSupplier *uuid.UUID) error {
	bound := ""
	if p.SupplierID != nil {
		bound = p.SupplierID.String()
	}
	return apperror.Unprocessable(fmt.Sprintf("product %s is supplied by a different supplier", p.Label())).
		WithDetails(map[string]string{
			"product_id":        p.ID.String(),
			"bound_supplier_id": bound,
			"supplier_id":       purchaseSupplier.String(),
		}).Wrap(ledger.ErrSupplierMismatch)
}

func applyPurchaseRequest(p *model.Purchase, req *PurchaseRequest) {
	p.SupplierID = req.SupplierID
	p.Note = req.Note
	p.Discount = req.Discount
	p.Tax = req.Tax
	p.Items = make([]model.PurchaseItem, len(req.Items))
	for i, it := range req.Items {
		p.Items[i] = model.PurchaseItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
		}
	}
	p.Recalculate()
}
