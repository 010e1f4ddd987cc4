package service

import (
	"context"
	"errors"
	"fmt"

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

type SaleService interface {
	Create(ctx context.Context, actor model.Actor, req *SaleRequest) (*model.Sale, error)
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *SaleRequest) (*model.Sale, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, filter repository.SaleFilter) ([]model.Sale, int64, error)
}

type saleService struct {
	ledger  Ledger
	runner  *TxRunner
	stock   *stockLedger
	numbers *numberer
	sales   repository.SaleRepository
}

func NewSaleService(l Ledger, sales repository.SaleRepository) SaleService {
	return &saleService{
		ledger: l,
		runner: l.runner(),
		stock:  l.stock(),
		numbers: &numberer{
			prefix: l.Config.SaleNumberPrefix,
			seq:    l.Sequence,
			loc:    l.Config.Location(),
			now:    l.clock(),
			exists: sales.NumberExists,
		},
		sales: sales,
	}
}

// Create takes every line out of stock with a conditional decrement and freezes the
// current product price on the line.
func (s *saleService) Create(ctx context.Context, actor model.Actor, req *SaleRequest) (*model.Sale, error) {
	ctx, span := tracer.Start(ctx, "SaleService.Create", trace.WithAttributes(attribute.String("actor.id", actor.ID.String())))
	defer span.End()

	if err := validate(req); err != nil {
		return nil, err
	}

	sale := &model.Sale{
		CustomerName:  req.CustomerName,
		PaymentMethod: req.PaymentMethod,
		Discount:      req.Discount,
	}
	sale.ID = uuid.New()
	sale.Stamp(actor.AuditName())

	var locked map[uuid.UUID]*model.Product
	err := s.runner.Run(ctx, actor, func(uow *UnitOfWork) error {
		var err error
		locked, err = s.stock.lockProducts(uow.Tx, saleProductIDs(nil, req.Items))
		if err != nil {
			return err
		}

		number, err := s.numbers.next(ctx, uow.Tx)
		if err != nil {
			return err
		}
		sale.Number = number

		ref := logRef{SaleID: &sale.ID, Note: number}
		sale.Items, err = s.applyLines(uow, locked, req.Items, ledger.ActionSaleCreate, ref)
		if err != nil {
			return err
		}
		sale.Recalculate()

		if err := s.sales.Create(uow.Tx, sale); err != nil {
			return err
		}
		uow.AfterCommit(func() { s.publish(actor, ledger.ActionSaleCreate, sale, locked, "created") })
		return nil
	})
	observe(ctx, "sale.create", actor, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.FromContext(ctx).Info("sale created",
		zap.String("sale_id", sale.ID.String()),
		zap.String("number", sale.Number),
		zap.String("actor_id", actor.ID.String()),
		zap.Int("lines", len(sale.Items)),
	)
	return s.GetByID(ctx, sale.ID)
}

// Update restores every original line and then applies the new ones. Both phases
// run with all involved product rows locked, so the restored quantity is never
// visible to another transaction.
func (s *saleService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *SaleRequest) (*model.Sale, error) {
	ctx, span := tracer.Start(ctx, "SaleService.Update", trace.WithAttributes(
		attribute.String("sale.id", id.String()),
		attribute.String("actor.id", actor.ID.String()),
	))
	defer span.End()

	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		sale   *model.Sale
		locked map[uuid.UUID]*model.Product
	)
	err := s.runner.Run(ctx, actor, func(uow *UnitOfWork) error {
		var err error
		sale, err = s.sales.FindForUpdate(uow.Tx, id)
		if err != nil {
			return notFound(err, "sale", id)
		}

		locked, err = s.stock.lockProducts(uow.Tx, saleProductIDs(sale.Items, req.Items))
		if err != nil {
			return err
		}

		ref := logRef{SaleID: &sale.ID, Note: sale.Number}
		for _, item := range sale.Items {
			if err := s.stock.increase(uow, locked[item.ProductID], item.Quantity, ledger.ActionSaleUpdateRestore, ref); err != nil {
				return err
			}
		}

		sale.Items, err = s.applyLines(uow, locked, req.Items, ledger.ActionSaleUpdateApply, ref)
		if err != nil {
			return err
		}
		sale.CustomerName = req.CustomerName
		sale.PaymentMethod = req.PaymentMethod
		sale.Discount = req.Discount
		sale.UpdatedBy = actor.AuditName()
		sale.Recalculate()

		if err := s.sales.Replace(uow.Tx, sale); err != nil {
			return err
		}
		uow.AfterCommit(func() { s.publish(actor, ledger.ActionSaleUpdateApply, sale, locked, "updated") })
		return nil
	})
	observe(ctx, "sale.update", actor, err, zap.String("sale_id", id.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.FromContext(ctx).Info("sale updated",
		zap.String("sale_id", id.String()),
		zap.String("number", sale.Number),
		zap.String("actor_id", actor.ID.String()),
	)
	return s.GetByID(ctx, id)
}

// Delete puts every line back into stock and soft-deletes the sale
func (s *saleService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "SaleService.Delete", trace.WithAttributes(
		attribute.String("sale.id", id.String()),
		attribute.String("actor.id", actor.ID.String()),
	))
	defer span.End()

	var sale *model.Sale
	err := s.runner.Run(ctx, actor, func(uow *UnitOfWork) error {
		var err error
		sale, err = s.sales.FindForUpdate(uow.Tx, id)
		if err != nil {
			return notFound(err, "sale", id)
		}

		locked, err := s.stock.lockProducts(uow.Tx, saleProductIDs(sale.Items, nil))
		if err != nil {
			return err
		}

		ref := logRef{SaleID: &sale.ID, Note: sale.Number}
		for _, item := range sale.Items {
			if err := s.stock.increase(uow, locked[item.ProductID], item.Quantity, ledger.ActionSaleDeleteRestore, ref); err != nil {
				return err
			}
		}
		if err := s.sales.SoftDelete(uow.Tx, id, actor.AuditName()); err != nil {
			return err
		}
		uow.AfterCommit(func() { s.publish(actor, ledger.ActionSaleDeleteRestore, sale, locked, "deleted") })
		return nil
	})
	observe(ctx, "sale.delete", actor, err, zap.String("sale_id", id.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	logger.FromContext(ctx).Info("sale deleted",
		zap.String("sale_id", id.String()),
		zap.String("number", sale.Number),
		zap.String("actor_id", actor.ID.String()),
	)
	return nil
}

func (s *saleService) GetByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("sale", id.String())
		}
		return nil, apperror.Internal(err)
	}
	return sale, nil
}

func (s *saleService) List(ctx context.Context, filter repository.SaleFilter) ([]model.Sale, int64, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, apperror.Validation("'to' must not be before 'from'")
	}
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return sales, total, nil
}

// applyLines decrements stock for each requested line in order and returns the sale
// items with the unit price frozen from the product.
func (s *saleService) applyLines(uow *UnitOfWork, locked map[uuid.UUID]*model.Product, lines []SaleItemRequest, action ledger.Action, ref logRef) ([]model.SaleItem, error) {
	items := make([]model.SaleItem, 0, len(lines))
	for _, line := range lines {
		p := locked[line.ProductID]
		if err := requireLive(p); err != nil {
			return nil, err
		}
		if err := s.stock.decrease(uow, p, line.Quantity, action, ref); err != nil {
			return nil, err
		}
		items = append(items, model.SaleItem{
			ProductID: p.ID,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
		})
	}
	return items, nil
}

func (s *saleService) publish(actor model.Actor, action ledger.Action, sale *model.Sale, locked map[uuid.UUID]*model.Product, verb string) {
	s.ledger.publish(ws.Event{
		Type:    "stock_update",
		Action:  string(action),
		Data:    map[string]interface{}{"sale_id": sale.ID, "number": sale.Number, "products": productSnapshot(locked)},
		User:    actor,
		Message: fmt.Sprintf("%s %s sale %s", actor.Name, verb, sale.Number),
	})
}

// saleProductIDs collects the distinct products of the existing items and the requested lines
func saleProductIDs(existing []model.SaleItem, lines []SaleItemRequest) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(existing)+len(lines))
	ids := make([]uuid.UUID, 0, len(existing)+len(lines))
	add := func(id uuid.UUID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, it := range existing {
		add(it.ProductID)
	}
	for _, l := range lines {
		add(l.ProductID)
	}
	return ids
}
