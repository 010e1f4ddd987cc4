package model

// Privilege represents a permission that can be assigned to roles
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "purchase:post"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

// Privilege codes checked by the API routes
const (
	PrivProductView             = "product:view"
	PrivProductCreate           = "product:create"
	PrivProductUpdate           = "product:update"
	PrivProductDelete           = "product:delete"
	PrivProductReassignSupplier = "product:reassign_supplier"
	PrivSupplierView            = "supplier:view"
	PrivSupplierCreate          = "supplier:create"
	PrivPurchaseView            = "purchase:view"
	PrivPurchaseCreate          = "purchase:create"
	PrivPurchaseUpdate          = "purchase:update"
	PrivPurchaseDelete          = "purchase:delete"
	PrivPurchasePost            = "purchase:post"
	PrivPurchaseCancel          = "purchase:cancel"
	PrivSaleView                = "sale:view"
	PrivSaleCreate              = "sale:create"
	PrivSaleUpdate              = "sale:update"
	PrivSaleDelete              = "sale:delete"
	PrivInventoryLogView        = "inventory_log:view"
	PrivDashboardView           = "dashboard:view"
	PrivUserView                = "user:view"
	PrivUserCreate              = "user:create"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	{Code: PrivProductReassignSupplier, Name: "Reassign Product Supplier"},
	{Code: PrivSupplierView, Name: "View Supplier"},
	{Code: PrivSupplierCreate, Name: "Create Supplier"},
	{Code: PrivPurchaseView, Name: "View Purchase"},
	{Code: PrivPurchaseCreate, Name: "Create Purchase Draft"},
	{Code: PrivPurchaseUpdate, Name: "Update Purchase Draft"},
	{Code: PrivPurchaseDelete, Name: "Delete Purchase Draft"},
	{Code: PrivPurchasePost, Name: "Post Purchase"},
	{Code: PrivPurchaseCancel, Name: "Cancel Purchase"},
	{Code: PrivSaleView, Name: "View Sale"},
	{Code: PrivSaleCreate, Name: "Create Sale"},
	{Code: PrivSaleUpdate, Name: "Update Sale"},
	{Code: PrivSaleDelete, Name: "Delete Sale"},
	{Code: PrivInventoryLogView, Name: "View Inventory Log"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
	{Code: PrivUserView, Name: "View Users and Roles"},
	{Code: PrivUserCreate, Name: "Create User"},
}

// adminOnly privileges are withheld from the STAFF role
var adminOnly = map[string]bool{
	PrivPurchaseCancel:          true,
	PrivProductDelete:           true,
	PrivProductReassignSupplier: true,
	PrivUserView:                true,
	PrivUserCreate:              true,
}

// StaffPrivileges filters the full list down to what STAFF may do
func StaffPrivileges(all []Privilege) []Privilege {
	out := make([]Privilege, 0, len(all))
	for _, p := range all {
		if !adminOnly[p.Code] {
			out = append(out, p)
		}
	}
	return out
}
