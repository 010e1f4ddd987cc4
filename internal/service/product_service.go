package service

import (
	"context"
	"errors"
	"fmt"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductService manages the catalogue side of products. Stock, cost and supplier
// binding are written by the ledger only.
type ProductService interface {
	CreateProduct(ctx context.Context, actor model.Actor, req *ProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, actor model.Actor, id uuid.UUID, req *ProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, actor model.Actor, id uuid.UUID) error
	ReassignSupplier(ctx context.Context, actor model.Actor, id uuid.UUID, req *ReassignSupplierRequest) (*model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	events       ws.Publisher
}

func NewProductService(pRepo repository.ProductRepository, sRepo repository.SupplierRepository, events ws.Publisher) ProductService {
	return &productService{
		productRepo:  pRepo,
		supplierRepo: sRepo,
		events:       events,
	}
}

func (s *productService) CreateProduct(ctx context.Context, actor model.Actor, req *ProductRequest) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	if existing, _ := s.productRepo.FindBySKU(ctx, req.SKU); existing != nil {
		return nil, apperror.Conflict("SKU already exists").WithDetail("sku", req.SKU)
	}

	product := &model.Product{
		SKU:   req.SKU,
		Name:  req.Name,
		Unit:  req.Unit,
		Price: req.Price,
	}
	product.Stamp(actor.AuditName())

	// the unique index also covers deleted products
	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("SKU already exists").WithDetail("sku", req.SKU)
		}
		return nil, apperror.Internal(err)
	}

	logger.FromContext(ctx).Info("product created", zap.String("product_id", product.ID.String()), zap.String("sku", product.SKU))
	s.publish(actor, "product_created", product, fmt.Sprintf("%s created product '%s'", actor.Name, product.Name))
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, actor model.Actor, id uuid.UUID, req *ProductRequest) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	existing, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.SKU != existing.SKU {
		if other, _ := s.productRepo.FindBySKU(ctx, req.SKU); other != nil {
			return nil, apperror.Conflict("SKU already exists").WithDetail("sku", req.SKU)
		}
	}

	existing.SKU = req.SKU
	existing.Name = req.Name
	existing.Unit = req.Unit
	existing.Price = req.Price
	existing.UpdatedBy = actor.AuditName()
	if err := s.productRepo.UpdateCatalog(ctx, existing); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("SKU already exists").WithDetail("sku", req.SKU)
		}
		return nil, apperror.Internal(err)
	}

	s.publish(actor, "product_updated", existing, fmt.Sprintf("%s updated product '%s'", actor.Name, existing.Name))
	return s.GetProductByID(ctx, id)
}

// DeleteProduct soft-deletes; history and stock stay readable
func (s *productService) DeleteProduct(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.SoftDelete(ctx, id, actor.AuditName()); err != nil {
		return apperror.Internal(err)
	}

	logger.FromContext(ctx).Info("product deleted", zap.String("product_id", id.String()), zap.Int("stock", product.Stock))
	s.publish(actor, "product_deleted", product, fmt.Sprintf("%s deleted product '%s'", actor.Name, product.Name))
	return nil
}

// ReassignSupplier is the administrative override of the supplier binding
func (s *productService) ReassignSupplier(ctx context.Context, actor model.Actor, id uuid.UUID, req *ReassignSupplierRequest) (*model.Product, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only administrators can reassign a product's supplier")
	}

	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.SupplierID != nil {
		if _, err := s.supplierRepo.FindByID(ctx, *req.SupplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("supplier", req.SupplierID.String())
			}
			return nil, apperror.Internal(err)
		}
	}

	if err := s.productRepo.SetSupplier(ctx, id, req.SupplierID, actor.AuditName()); err != nil {
		return nil, apperror.Internal(err)
	}

	from, to := "none", "none"
	if product.SupplierID != nil {
		from = product.SupplierID.String()
	}
	if req.SupplierID != nil {
		to = req.SupplierID.String()
	}
	logger.FromContext(ctx).Info("product supplier reassigned",
		zap.String("product_id", id.String()),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("actor_id", actor.ID.String()),
	)
	return s.GetProductByID(ctx, id)
}

func (s *productService) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return products, nil
}

func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product", id.String())
		}
		return nil, apperror.Internal(err)
	}
	return product, nil
}

func (s *productService) publish(actor model.Actor, action string, p *model.Product, message string) {
	if s.events == nil {
		return
	}
	s.events.Publish(ws.Event{
		Type:   "product_update",
		Action: action,
		Data: map[string]interface{}{
			"id":    p.ID,
			"sku":   p.SKU,
			"name":  p.Name,
			"stock": p.Stock,
			"price": p.Price,
		},
		User:    actor,
		Message: message,
	})
}
