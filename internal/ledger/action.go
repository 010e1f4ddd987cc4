package ledger

// Action identifies the operation that caused an inventory log entry
type Action string

const (
	ActionPurchasePost      Action = "purchase.post"
	ActionPurchaseCancel    Action = "purchase.cancel"
	ActionSaleCreate        Action = "sale.create"
	ActionSaleUpdateRestore Action = "sale.update.restore"
	ActionSaleUpdateApply   Action = "sale.update.apply"
	ActionSaleDeleteRestore Action = "sale.delete.restore"
)

var actions = []Action{
	ActionPurchasePost,
	ActionPurchaseCancel,
	ActionSaleCreate,
	ActionSaleUpdateRestore,
	ActionSaleUpdateApply,
	ActionSaleDeleteRestore,
}

// Actions returns every known action
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

func (a Action) Valid() bool {
	for _, known := range actions {
		if a == known {
			return true
		}
	}
	return false
}

// Compensating actions reverse an earlier mutation; they may touch soft-deleted products
func (a Action) Compensating() bool {
	switch a {
	case ActionPurchaseCancel, ActionSaleUpdateRestore, ActionSaleDeleteRestore:
		return true
	}
	return false
}
