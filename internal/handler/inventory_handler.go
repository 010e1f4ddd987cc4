package handler

import (
	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

// InventoryHandler serves the read side of the inventory log
type InventoryHandler struct {
	service service.InventoryLogService
}

func NewInventoryHandler(s service.InventoryLogService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// GetLogs returns the audit log newest first
// GET /api/v1/inventory-logs?product_id=&purchase_id=&sale_id=&actor_id=&action=&from=&to=&page=&page_size=
func (h *InventoryHandler) GetLogs(c *fiber.Ctx) error {
	var (
		filter repository.LogFilter
		err    error
	)
	if filter.ProductID, err = queryID(c, "product_id"); err != nil {
		return respondError(c, err)
	}
	if filter.PurchaseID, err = queryID(c, "purchase_id"); err != nil {
		return respondError(c, err)
	}
	if filter.SaleID, err = queryID(c, "sale_id"); err != nil {
		return respondError(c, err)
	}
	if filter.ActorID, err = queryID(c, "actor_id"); err != nil {
		return respondError(c, err)
	}
	if filter.From, err = queryTime(c, "from", false); err != nil {
		return respondError(c, err)
	}
	if filter.To, err = queryTime(c, "to", true); err != nil {
		return respondError(c, err)
	}
	filter.Action = ledger.Action(c.Query("action"))
	filter.Page = queryPage(c)

	logs, total, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return paginated(c, logs, total, filter.Page)
}

// Verify reports entries breaking after = before + delta and products whose stock
// disagrees with their history
// GET /api/v1/inventory-logs/verify
func (h *InventoryHandler) Verify(c *fiber.Ctx) error {
	report, err := h.service.Verify(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
