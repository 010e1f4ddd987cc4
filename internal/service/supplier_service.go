package service

import (
	"context"
	"errors"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierService interface {
	CreateSupplier(ctx context.Context, actor model.Actor, req *SupplierRequest) (*model.Supplier, error)
	GetAllSuppliers(ctx context.Context) ([]model.Supplier, error)
	GetSupplierByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
}

type supplierService struct {
	supplierRepo repository.SupplierRepository
}

func NewSupplierService(sRepo repository.SupplierRepository) SupplierService {
	return &supplierService{supplierRepo: sRepo}
}

func (s *supplierService) CreateSupplier(ctx context.Context, actor model.Actor, req *SupplierRequest) (*model.Supplier, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	supplier := &model.Supplier{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	}
	supplier.Stamp(actor.AuditName())

	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("supplier name already exists").WithDetail("name", req.Name)
		}
		return nil, apperror.Internal(err)
	}
	return supplier, nil
}

func (s *supplierService) GetAllSuppliers(ctx context.Context) ([]model.Supplier, error) {
	suppliers, err := s.supplierRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return suppliers, nil
}

func (s *supplierService) GetSupplierByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("supplier", id.String())
		}
		return nil, apperror.Internal(err)
	}
	return supplier, nil
}
