package service

import (
	"fmt"

	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost" validate:"gte=0"`
}

// PurchaseRequest creates or replaces a draft
type PurchaseRequest struct {
	SupplierID *uuid.UUID            `json:"supplier_id"`
	Note       string                `json:"note" validate:"max=2000"`
	Discount   decimal.Decimal       `json:"discount" validate:"gte=0"`
	Tax        decimal.Decimal       `json:"tax" validate:"gte=0"`
	Items      []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CancelPurchaseRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type SaleItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

// SaleRequest creates a sale or replaces its lines. Discount is a percentage.
type SaleRequest struct {
	CustomerName  string            `json:"customer_name" validate:"max=255"`
	PaymentMethod string            `json:"payment_method" validate:"max=20"`
	Discount      decimal.Decimal   `json:"discount" validate:"gte=0,lte=100"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

type ProductRequest struct {
	SKU   string          `json:"sku" validate:"required,max=50"`
	Name  string          `json:"name" validate:"required,max=255"`
	Unit  string          `json:"unit" validate:"max=20"`
	Price decimal.Decimal `json:"price" validate:"gte=0"`
}

type SupplierRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Phone   string `json:"phone" validate:"max=30"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

// ReassignSupplierRequest sets or, with a null supplier_id, clears a product's supplier
type ReassignSupplierRequest struct {
	SupplierID *uuid.UUID `json:"supplier_id"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// validate runs the struct tags and reports every failed field as a detail
func validate(req interface{}) error {
	errs := validator.ValidateStruct(req)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	appErr := apperror.Validation(fmt.Sprintf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag))
	for _, e := range errs {
		appErr.WithDetail(e.FailedField, e.Tag)
	}
	return appErr
}
