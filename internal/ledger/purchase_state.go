package ledger

type PurchaseStatus string

const (
	PurchaseDraft     PurchaseStatus = "draft"
	PurchasePosted    PurchaseStatus = "posted"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// transitions lists the only moves a purchase can make; there is no way back to draft
var transitions = map[PurchaseStatus]PurchaseStatus{
	PurchaseDraft:  PurchasePosted,
	PurchasePosted: PurchaseCancelled,
}

// CanTransition reports whether from → to is allowed
func CanTransition(from, to PurchaseStatus) bool {
	next, ok := transitions[from]
	return ok && next == to
}

// Editable reports whether the purchase may still be updated or deleted
func (s PurchaseStatus) Editable() bool {
	return s == PurchaseDraft
}

func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchaseDraft, PurchasePosted, PurchaseCancelled:
		return true
	}
	return false
}
