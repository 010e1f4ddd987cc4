package ledger

import (
	"errors"

	"github.com/google/uuid"
)

// ErrSupplierMismatch means the product is already sourced from another supplier
var ErrSupplierMismatch = errors.New("product is bound to a different supplier")

// CheckSupplierBinding applies the one-supplier-per-product rule.
// bind is true when the product is unbound and the purchase names a supplier.
// A purchase without a supplier neither binds nor conflicts.
func CheckSupplierBinding(productSupplier, purchaseSupplier *uuid.UUID) (bind bool, err error) {
	if purchaseSupplier == nil {
		return false, nil
	}
	if productSupplier == nil {
		return true, nil
	}
	if *productSupplier != *purchaseSupplier {
		return false, ErrSupplierMismatch
	}
	return false, nil
}
