package handler

import (
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Auth      *AuthHandler
	Product   *ProductHandler
	Supplier  *SupplierHandler
	Purchase  *PurchaseHandler
	Sale      *SaleHandler
	Inventory *InventoryHandler
	Dashboard *DashboardHandler
	User      *UserHandler
	Role      *RoleHandler
}

// RegisterRoutes mounts the /api/v1 routes on app
func RegisterRoutes(app *fiber.App, h Handlers, tokens *jwt.Manager) {
	api := app.Group("/api/v1")
	need := middleware.RequirePrivilege

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/reset-password", h.Auth.ResetPassword)
	auth.Post("/validate-token", h.Auth.ValidateToken)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(tokens))

	protected.Get("/dashboard/stats", need(model.PrivDashboardView), h.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", need(model.PrivDashboardView), h.Dashboard.GetStockMovement)

	protected.Get("/products", need(model.PrivProductView), h.Product.GetProducts)
	protected.Get("/products/:id", need(model.PrivProductView), h.Product.GetProduct)
	protected.Post("/products", need(model.PrivProductCreate), h.Product.CreateProduct)
	protected.Put("/products/:id", need(model.PrivProductUpdate), h.Product.UpdateProduct)
	protected.Delete("/products/:id", need(model.PrivProductDelete), h.Product.DeleteProduct)
	protected.Put("/products/:id/supplier", need(model.PrivProductReassignSupplier), h.Product.ReassignSupplier)

	protected.Get("/suppliers", need(model.PrivSupplierView), h.Supplier.GetSuppliers)
	protected.Get("/suppliers/:id", need(model.PrivSupplierView), h.Supplier.GetSupplier)
	protected.Post("/suppliers", need(model.PrivSupplierCreate), h.Supplier.CreateSupplier)

	protected.Get("/purchases", need(model.PrivPurchaseView), h.Purchase.GetPurchases)
	protected.Get("/purchases/:id", need(model.PrivPurchaseView), h.Purchase.GetPurchase)
	protected.Post("/purchases", need(model.PrivPurchaseCreate), h.Purchase.CreateDraft)
	protected.Put("/purchases/:id", need(model.PrivPurchaseUpdate), h.Purchase.UpdateDraft)
	protected.Delete("/purchases/:id", need(model.PrivPurchaseDelete), h.Purchase.DeleteDraft)
	protected.Post("/purchases/:id/post", need(model.PrivPurchasePost), h.Purchase.Post)
	protected.Post("/purchases/:id/cancel", need(model.PrivPurchaseCancel), h.Purchase.Cancel)

	protected.Get("/sales", need(model.PrivSaleView), h.Sale.GetSales)
	protected.Get("/sales/:id", need(model.PrivSaleView), h.Sale.GetSale)
	protected.Post("/sales", need(model.PrivSaleCreate), h.Sale.CreateSale)
	protected.Put("/sales/:id", need(model.PrivSaleUpdate), h.Sale.UpdateSale)
	protected.Delete("/sales/:id", need(model.PrivSaleDelete), h.Sale.DeleteSale)

	protected.Get("/inventory-logs", need(model.PrivInventoryLogView), h.Inventory.GetLogs)
	protected.Get("/inventory-logs/verify", need(model.PrivInventoryLogView), h.Inventory.Verify)

	protected.Get("/users", need(model.PrivUserView), h.User.GetUsers)
	protected.Post("/users", need(model.PrivUserCreate), h.User.CreateUser)
	protected.Get("/roles", need(model.PrivUserView), h.Role.GetRoles)
	protected.Get("/privileges", need(model.PrivUserView), h.Role.GetPrivileges)
}
