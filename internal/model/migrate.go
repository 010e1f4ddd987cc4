package model

// AllModels lists every table, in migration order
func AllModels() []interface{} {
	return []interface{}{
		&Privilege{}, &Role{}, &User{},
		&Supplier{}, &Product{},
		&Purchase{}, &PurchaseItem{},
		&Sale{}, &SaleItem{},
		&InventoryLog{}, &DocumentSequence{},
	}
}
